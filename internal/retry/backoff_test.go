package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/transitload/pkg/transitload"
)

var _ transitload.BackoffStrategy = (*Backoff)(nil)

func TestConnectBackoff_Schedule(t *testing.T) {
	b := ConnectBackoff()
	b.Jitter = 0

	var total time.Duration
	for attempt := 0; attempt < b.MaxAttempts(); attempt++ {
		total += b.NextDelay(attempt)
	}
	assert.Equal(t, 5, b.MaxAttempts())
	assert.Equal(t, 8*time.Second, b.NextDelay(10), "capped")
	assert.Equal(t, 15500*time.Millisecond, total)
}

func TestBackoff_Doubles(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond}

	for attempt, want := range []time.Duration{100, 200, 400, 800, 1600} {
		assert.Equal(t, want*time.Millisecond, b.NextDelay(attempt), "attempt %d", attempt)
	}
}

func TestBackoff_Factor(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Factor: 1.5}
	assert.Equal(t, 150*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 225*time.Millisecond, b.NextDelay(2))
}

func TestBackoff_Jitter(t *testing.T) {
	tests := []struct {
		random float64
		want   time.Duration
	}{
		{0.0, 90 * time.Millisecond},
		{0.5, 100 * time.Millisecond},
		{1.0, 110 * time.Millisecond},
	}
	for _, tt := range tests {
		b := &Backoff{Initial: 100 * time.Millisecond, Jitter: 0.1, random: func() float64 { return tt.random }}
		assert.Equal(t, tt.want, b.NextDelay(0), "random=%v", tt.random)
	}
}

func TestBackoff_JitterStaysInBounds(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Jitter: 0.2}
	for i := 0; i < 100; i++ {
		d := b.NextDelay(0)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}
