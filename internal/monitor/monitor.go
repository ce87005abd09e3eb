// Package monitor re-runs batteries on a fixed interval until cancelled.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// Runner runs one battery. Satisfied by *probe.Battery; tests use fakes.
type Runner interface {
	Run(ctx context.Context, instance string) domain.InstanceReport
}

type Monitor struct {
	Runner    Runner
	Logger    *zap.Logger
	Instances []string
	Interval  time.Duration
}

func New(runner Runner, logger *zap.Logger, instances []string, interval time.Duration) *Monitor {
	return &Monitor{Runner: runner, Logger: logger, Instances: instances, Interval: interval}
}

// Run starts the loop: an immediate pass, then one per interval. Each tick is
// independent; no state is carried between ticks. The returned channel closes
// once ctx is cancelled, which is the loop's only way to stop.
func (m *Monitor) Run(ctx context.Context) <-chan domain.MonitorTick {
	out := make(chan domain.MonitorTick)

	go func() {
		defer close(out)
		defer m.Logger.Info("monitor_stopped")

		t := time.NewTicker(m.Interval)
		defer t.Stop()

		if !m.tick(ctx, out) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !m.tick(ctx, out) {
					return
				}
			}
		}
	}()

	return out
}

// tick runs every configured instance once and delivers the result. Delivery
// selects on ctx so a slow receiver cannot outlive a cancellation. Returns
// false when the loop should stop.
func (m *Monitor) tick(ctx context.Context, out chan<- domain.MonitorTick) bool {
	tick := domain.MonitorTick{
		At:      time.Now().UTC(),
		Reports: make([]domain.InstanceReport, 0, len(m.Instances)),
	}
	for _, inst := range m.Instances {
		if ctx.Err() != nil {
			return false
		}
		tick.Reports = append(tick.Reports, m.Runner.Run(ctx, inst))
	}

	m.Logger.Debug("monitor_tick", zap.Int("reports", len(tick.Reports)))

	select {
	case <-ctx.Done():
		return false
	case out <- tick:
		return true
	}
}
