// Package retry provides the one retry policy shared by the element
// resolver and the navigator: a fixed number of attempts, a per-retry
// delay schedule, and an optional side effect run before each retry
// (the resolver uses it for a bounded network-idle wait).
package retry

import (
	"context"
	"time"

	"webreplay/domain/interfaces"
)

// Policy describes a bounded retry loop. Attempts counts the initial
// try; Delays[i] is slept before attempt i+2 (one delay per retry).
type Policy struct {
	Attempts    int
	Delays      []time.Duration
	BeforeRetry func(ctx context.Context)
}

// Do runs fn up to p.Attempts times. fn reports done=true to stop the
// loop (the attempt produced an answer, including a definitive
// negative one). A non-nil error aborts immediately; it signals a
// driver-level fault, not a miss.
func (p Policy) Do(ctx context.Context, clk interfaces.Clock, fn func(attempt int) (done bool, err error)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := clk.Sleep(ctx, p.delay(attempt-1)); err != nil {
				return err
			}
			if p.BeforeRetry != nil {
				p.BeforeRetry(ctx)
			}
		}
		done, err := fn(attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

func (p Policy) delay(retry int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if retry >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[retry]
}
