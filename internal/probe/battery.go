package probe

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/score"
)

// Battery runs the full ordered set of probes against one instance and scores
// the outcome. Each run is self-contained; nothing is shared across runs.
type Battery struct {
	Exec    *Executor
	Logger  *zap.Logger
	Weights score.Weights
}

func NewBattery(exec *Executor, logger *zap.Logger, weights score.Weights) *Battery {
	return &Battery{Exec: exec, Logger: logger, Weights: weights}
}

// Normalize strips the scheme and trailing slashes from a user-supplied
// instance identifier. The scheme is kept as the probe transport: https
// unless the caller explicitly asked for http.
func Normalize(raw string) (host, scheme string) {
	host = strings.TrimSpace(raw)
	scheme = "https"
	if strings.HasPrefix(host, "http://") {
		scheme = "http"
	}
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.Trim(host, "/")
	return host, scheme
}

// Run executes every probe in battery order. If reachability fails, the
// remaining probes are not sent; they are recorded UNKNOWN so the report
// still carries one result per probe name.
func (b *Battery) Run(ctx context.Context, instance string) domain.InstanceReport {
	host, scheme := Normalize(instance)
	base := scheme + "://" + host

	report := domain.InstanceReport{
		Instance:  host,
		CheckedAt: time.Now().UTC(),
		Probes:    make([]domain.ProbeResult, 0, len(domain.BatteryOrder)),
	}

	reachable := true
	for _, name := range domain.BatteryOrder {
		if name != domain.ProbeReachability && !reachable {
			report.Probes = append(report.Probes, domain.ProbeResult{
				Name:   name,
				Status: domain.StatusUnknown,
				Detail: domain.DetailSkippedUnreachable,
			})
			continue
		}

		res := b.Exec.Run(ctx, base, name)
		report.Probes = append(report.Probes, res)

		if name == domain.ProbeReachability && res.Status == domain.StatusFailed {
			reachable = false
		}
	}

	report.Score, report.Label = score.Score(report.Probes, b.Weights)

	b.Logger.Info("battery_done",
		zap.String("instance", host),
		zap.Int("score", report.Score),
		zap.String("label", string(report.Label)),
		zap.Bool("reachable", reachable),
	)
	return report
}
