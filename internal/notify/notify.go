// Package notify delivers monitor alerts to external sinks.
package notify

import "context"

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a message out to every configured sink and reports the first
// failure.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop discards everything; used when no webhook is configured.
type Nop struct{}

func (Nop) Send(ctx context.Context, title, text string) error { return nil }
