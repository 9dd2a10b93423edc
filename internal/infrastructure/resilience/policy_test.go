package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsInvalidFields(t *testing.T) {
	cfg := Config{
		RetryMaxAttempts:    -1,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     10 * time.Millisecond,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 1.5,
	}.normalize()

	def := DefaultConfig()
	if cfg.RetryMaxAttempts != def.RetryMaxAttempts || cfg.RetryMultiplier != def.RetryMultiplier {
		t.Fatalf("unexpected retry settings %+v", cfg)
	}
	if cfg.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff must not undercut the initial backoff, got %v", cfg.RetryMaxBackoff)
	}
	if cfg.BreakerFailureRatio != def.BreakerFailureRatio || cfg.BreakerMinRequests != def.BreakerMinRequests {
		t.Fatalf("unexpected breaker settings %+v", cfg)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     300 * time.Millisecond,
		RetryMultiplier:     2,
	}.normalize()

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}
