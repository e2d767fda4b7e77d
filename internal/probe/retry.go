package probe

import (
	"context"
	"time"
)

// RetryProber re-probes a target that was Unreachable. Any HTTP response,
// even a 5xx, is returned straight away.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

// WithRetry wraps p only when more than one attempt is asked for.
func WithRetry(p Prober, attempts int, backoff time.Duration) Prober {
	if attempts <= 1 {
		return p
	}
	return &RetryProber{Inner: p, Attempts: attempts, Backoff: backoff}
}

func (r *RetryProber) Probe(ctx context.Context, target string) int {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	code := Unreachable
	for i := 0; i < attempts; i++ {
		code = r.Inner.Probe(ctx, target)
		if code != Unreachable {
			return code
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return Unreachable
			case <-time.After(r.Backoff):
			}
		}
	}
	return code
}
