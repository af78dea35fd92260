package razorpay

import (
	"context"
	"time"
)

// Pacer spaces successive API calls. Injected so tests don't sleep.
type Pacer interface {
	Wait(ctx context.Context) error
}

type delayPacer struct {
	delay time.Duration
}

// NewPacer returns a pacer that sleeps the fixed delay between calls,
// honoring context cancellation. A non-positive delay never waits.
func NewPacer(delay time.Duration) Pacer {
	return delayPacer{delay: delay}
}

func (p delayPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
