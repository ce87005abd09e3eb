// Package compare ranks several instances by running their batteries in
// isolation and sorting the reports.
package compare

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// Runner runs one battery. Satisfied by *probe.Battery; tests use fakes.
type Runner interface {
	Run(ctx context.Context, instance string) domain.InstanceReport
}

type Comparator struct {
	Runner      Runner
	Logger      *zap.Logger
	Concurrency int
}

func NewComparator(runner Runner, logger *zap.Logger, concurrency int) *Comparator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Comparator{Runner: runner, Logger: logger, Concurrency: concurrency}
}

// Compare runs the battery per instance with a bounded fan-out. Each report
// lands in its own slot, so one instance's failures cannot touch another's
// result. The returned table is sorted by score descending, base latency
// ascending, with input order preserved on full ties.
func (c *Comparator) Compare(ctx context.Context, instances []string) domain.ComparisonTable {
	rows := make([]domain.InstanceReport, len(instances))

	sem := make(chan struct{}, c.Concurrency)
	var wg sync.WaitGroup
	for i, inst := range instances {
		i, inst := i, inst
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			rows[i] = c.Runner.Run(ctx, inst)
		}()
	}
	wg.Wait()

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Score != rows[b].Score {
			return rows[a].Score > rows[b].Score
		}
		return lessLatency(rows[a].BaseLatency(), rows[b].BaseLatency())
	})

	c.Logger.Info("compare_done", zap.Int("instances", len(rows)))
	return domain.ComparisonTable{Rows: rows}
}

// lessLatency orders lower latency first; a missing latency sorts last.
func lessLatency(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
