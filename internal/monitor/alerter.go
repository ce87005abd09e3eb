package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/notify"
)

type AlerterConfig struct {
	Threshold       int // alert when score drops below this
	Cooldown        time.Duration
	AlertOnRecovery bool
}

type alertState struct {
	belowThreshold bool
	lastSentAt     time.Time
}

// Alerter watches monitor ticks and notifies when an instance's score crosses
// the threshold. State lives here, not in the monitor loop, so ticks stay
// independent evaluations.
type Alerter struct {
	notifier notify.Notifier
	cfg      AlerterConfig
	seen     map[string]*alertState
	now      func() time.Time // swapped in tests
}

func NewAlerter(notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	return &Alerter{
		notifier: notifier,
		cfg:      cfg,
		seen:     make(map[string]*alertState),
		now:      time.Now,
	}
}

// Observe inspects one tick. Sends are best-effort; a notifier error never
// stops monitoring.
func (a *Alerter) Observe(ctx context.Context, tick domain.MonitorTick) {
	for _, r := range tick.Reports {
		a.observeReport(ctx, r)
	}
}

func (a *Alerter) observeReport(ctx context.Context, r domain.InstanceReport) {
	below := r.Score < a.cfg.Threshold
	rec := a.seen[r.Instance]
	stateChanged := rec == nil && below || rec != nil && rec.belowThreshold != below
	if rec == nil {
		rec = &alertState{}
		a.seen[r.Instance] = rec
	}

	now := a.now()

	// Cooldown suppresses repeated low-score alerts; recoveries bypass it.
	cooled := rec.lastSentAt.IsZero() || now.Sub(rec.lastSentAt) >= a.cfg.Cooldown

	lowAlert := below && cooled
	recoveryAlert := stateChanged && !below && a.cfg.AlertOnRecovery && !rec.lastSentAt.IsZero()

	rec.belowThreshold = below

	if !lowAlert && !recoveryAlert {
		return
	}

	title := "Instance health LOW"
	if !below {
		title = "Instance health RECOVERED"
	}
	text := fmt.Sprintf(
		"Instance: %s\nScore: %d/100 (%s)\nChecked: %s",
		r.Instance, r.Score, r.Label, r.CheckedAt.Format(time.RFC3339),
	)
	_ = a.notifier.Send(ctx, title, text)
	rec.lastSentAt = now
}
