package domain

import "time"

// Label is the qualitative bucket derived from a score.
type Label string

const (
	LabelExcellent Label = "Excellent"
	LabelGood      Label = "Good"
	LabelFair      Label = "Fair"
	LabelPoor      Label = "Poor"
)

// InstanceReport holds one full battery run against one instance. It always
// contains exactly one ProbeResult per name in BatteryOrder, in that order,
// and is never mutated after scoring.
type InstanceReport struct {
	Instance  string        `json:"instance"`
	CheckedAt time.Time     `json:"checked_at"`
	Probes    []ProbeResult `json:"probes"`
	Score     int           `json:"score"`
	Label     Label         `json:"label"`
}

// Probe returns the result for the named probe, or nil if absent.
func (r *InstanceReport) Probe(name ProbeName) *ProbeResult {
	for i := range r.Probes {
		if r.Probes[i].Name == name {
			return &r.Probes[i]
		}
	}
	return nil
}

// BaseLatency is the reachability round-trip in milliseconds, or nil when the
// instance never answered. Used as the comparison tie-break.
func (r *InstanceReport) BaseLatency() *float64 {
	if p := r.Probe(ProbeReachability); p != nil {
		return p.LatencyMS
	}
	return nil
}

// ComparisonTable is the ranked output of a compare run: rows sorted by score
// descending, base latency ascending, input order on full ties.
type ComparisonTable struct {
	Rows []InstanceReport `json:"rows"`
}

// MonitorTick pairs a timestamp with one report per monitored instance.
type MonitorTick struct {
	At      time.Time        `json:"at"`
	Reports []InstanceReport `json:"reports"`
}
