package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

type countingRunner struct {
	runs atomic.Int64
}

func (c *countingRunner) Run(ctx context.Context, instance string) domain.InstanceReport {
	c.runs.Add(1)
	probes := make([]domain.ProbeResult, 0, len(domain.BatteryOrder))
	for _, name := range domain.BatteryOrder {
		probes = append(probes, domain.ProbeResult{Name: name, Status: domain.StatusOK})
	}
	return domain.InstanceReport{
		Instance:  instance,
		CheckedAt: time.Now().UTC(),
		Probes:    probes,
		Score:     100,
		Label:     domain.LabelExcellent,
	}
}

func TestMonitor_TwoTicksThenCancel(t *testing.T) {
	runner := &countingRunner{}
	m := New(runner, zap.NewNop(), []string{"one.example"}, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := m.Run(ctx)

	received := 0
	for tick := range ticks {
		received++
		if len(tick.Reports) != 1 {
			t.Fatalf("want 1 report per tick, got %d", len(tick.Reports))
		}
		if received == 2 {
			cancel()
		}
	}
	// Loop exited: channel closed, Stopped reached without hanging.
	if received != 2 {
		t.Fatalf("want exactly 2 ticks, got %d", received)
	}
	cancel()
}

func TestMonitor_TicksAreIndependent(t *testing.T) {
	// A runner that reports an unreachable instance; the loop must keep
	// ticking regardless of per-tick outcomes.
	runner := &countingRunner{}
	m := New(runner, zap.NewNop(), []string{"a.example", "b.example"}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := m.Run(ctx)
	for i := 0; i < 3; i++ {
		tick, ok := <-ticks
		if !ok {
			t.Fatalf("channel closed after %d ticks, want 3", i)
		}
		if len(tick.Reports) != 2 {
			t.Fatalf("want 2 reports per tick, got %d", len(tick.Reports))
		}
	}
	cancel()
	for range ticks {
		// drain until close
	}

	if got := runner.runs.Load(); got < 6 {
		t.Fatalf("want at least 6 battery runs over 3 ticks, got %d", got)
	}
}

func TestMonitor_CancelBeforeFirstTickDelivery(t *testing.T) {
	runner := &countingRunner{}
	m := New(runner, zap.NewNop(), []string{"one.example"}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks := m.Run(ctx)
	select {
	case _, ok := <-ticks:
		if ok {
			// The first pass may have raced the cancellation; the channel
			// must still close right after.
			if _, ok := <-ticks; ok {
				t.Fatal("want closed channel after cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}
