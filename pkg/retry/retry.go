// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidAttempts = errors.New("retry: attempts must be at least 1")

// Policy is a bounded retry with a constant backoff. Backoff does not grow
// between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do calls op until it succeeds or MaxAttempts calls have been made, sleeping
// Backoff between consecutive calls. It returns the last error from op, or
// the context error if ctx ends while waiting.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	if p.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(ctx, attempt); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		t := time.NewTimer(p.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
	}
	return err
}

// Do is shorthand for Policy{MaxAttempts: attempts, Backoff: backoff}.Do.
func Do(ctx context.Context, attempts int, backoff time.Duration, op func(ctx context.Context, attempt int) error) error {
	return Policy{MaxAttempts: attempts, Backoff: backoff}.Do(ctx, op)
}
