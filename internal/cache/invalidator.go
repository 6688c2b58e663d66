package cache

import (
	"context"
	"errors"
)

// Invalidator marks cached views stale.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Chain runs every invalidator and joins their errors.
type Chain []Invalidator

func (c Chain) Invalidate(ctx context.Context, keys ...string) error {
	var errs []error
	for _, inv := range c {
		if inv == nil {
			continue
		}
		if err := inv.Invalidate(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop never stores anything. Used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error          { return ErrMiss }
func (Noop) Version(context.Context, string) (uint64, error) { return 0, nil }
func (Noop) Invalidate(context.Context, ...string) error     { return nil }

func (Noop) SetIfVersion(context.Context, string, string, uint64, any) (bool, error) {
	return false, nil
}
