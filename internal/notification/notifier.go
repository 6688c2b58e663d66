package notification

import (
	"context"
	"errors"
)

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi delivers to every notifier, even when an earlier one fails, and
// joins the errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops notifications. Used when no channel is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
