// Package score turns a battery's probe results into a 0-100 health score.
// It is a pure function of the probe statuses: no network, no clock, no state.
package score

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// Weights assigns each probe its point value. The values must sum to 100 so
// the weighted sum is already the final score, and must all be even so the
// half-credit for DEGRADED stays an integer.
type Weights map[domain.ProbeName]int

// DefaultWeights mirrors the probe importance ordering: reachability and API
// heaviest, rate limiting lightest.
func DefaultWeights() Weights {
	return Weights{
		domain.ProbeReachability:    20,
		domain.ProbeAPI:             16,
		domain.ProbeFederation:      10,
		domain.ProbeTimeline:        14,
		domain.ProbeStreaming:       10,
		domain.ProbeMedia:           10,
		domain.ProbeSecurityHeaders: 14,
		domain.ProbeRateLimiting:    6,
	}
}

// Validate checks coverage, parity and the sum-to-100 invariant.
func (w Weights) Validate() error {
	var errs error
	sum := 0
	for _, name := range domain.BatteryOrder {
		pts, ok := w[name]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("weights: missing probe %q", name))
			continue
		}
		if pts < 0 {
			errs = multierr.Append(errs, fmt.Errorf("weights: %q is negative (%d)", name, pts))
		}
		if pts%2 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("weights: %q must be even for half-credit (%d)", name, pts))
		}
		sum += pts
	}
	if len(w) != len(domain.BatteryOrder) {
		errs = multierr.Append(errs, fmt.Errorf("weights: %d entries, want %d", len(w), len(domain.BatteryOrder)))
	}
	if sum != 100 {
		errs = multierr.Append(errs, fmt.Errorf("weights: sum is %d, want 100", sum))
	}
	return errs
}

// Score maps probe results to a score and label. OK earns full weight,
// DEGRADED half, FAILED and UNKNOWN nothing.
func Score(probes []domain.ProbeResult, w Weights) (int, domain.Label) {
	total := 0
	for _, p := range probes {
		pts := w[p.Name]
		switch p.Status {
		case domain.StatusOK:
			total += pts
		case domain.StatusDegraded:
			total += pts / 2
		}
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total, LabelFor(total)
}

// LabelFor buckets a score: >=90 Excellent, >=70 Good, >=50 Fair, else Poor.
func LabelFor(score int) domain.Label {
	switch {
	case score >= 90:
		return domain.LabelExcellent
	case score >= 70:
		return domain.LabelGood
	case score >= 50:
		return domain.LabelFair
	default:
		return domain.LabelPoor
	}
}
