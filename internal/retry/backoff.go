package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff is an exponential schedule: the n-th retry waits Initial*Factor^n,
// capped at Max and spread by +/-Jitter.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64 // below 1 means 2
	Jitter  float64 // fraction of the delay, 0.1 = +/-10%

	// Attempts counts retries after the first try. Negative retries until
	// the context is done.
	Attempts int

	random func() float64
}

// ConnectBackoff is the schedule for opening a warehouse session. Five
// retries span roughly 15s, long enough for a warehouse container that is
// still starting next to the loader.
func ConnectBackoff() *Backoff {
	return &Backoff{
		Initial:  500 * time.Millisecond,
		Max:      8 * time.Second,
		Factor:   2,
		Jitter:   0.1,
		Attempts: 5,
	}
}

func (b *Backoff) NextDelay(attempt int) time.Duration {
	factor := b.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(b.Initial) * math.Pow(factor, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}

	if b.Jitter > 0 {
		random := b.random
		if random == nil {
			random = rand.Float64
		}
		d *= 1 + b.Jitter*(2*random()-1)
	}
	return time.Duration(math.Round(d))
}

func (b *Backoff) MaxAttempts() int {
	return b.Attempts
}
