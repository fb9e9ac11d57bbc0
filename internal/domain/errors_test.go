package domain

import (
	"testing"
	"time"
)

func TestRateLimitErrorRemainingSeconds(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{0, 0},
		{-time.Second, 0},
		{100 * time.Millisecond, 1}, // округление вверх
		{time.Second, 1},
		{4*time.Second + 500*time.Millisecond, 5},
		{10 * time.Second, 10},
	}

	for _, c := range cases {
		e := &RateLimitError{Remaining: c.remaining}
		if got := e.RemainingSeconds(); got != c.want {
			t.Errorf("RemainingSeconds(%v) = %d, want %d", c.remaining, got, c.want)
		}
	}
}
