package signal

import (
	"testing"
	"time"
)

func TestJoinRateLimiter(t *testing.T) {
	rl := NewJoinRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("attempt %d must pass", i+1)
		}
	}
	if rl.Allow("a") {
		t.Fatal("fourth attempt inside the window must be blocked")
	}
	// Independent connections have independent budgets.
	if !rl.Allow("b") {
		t.Fatal("other connection must not be throttled")
	}
}

func TestJoinRateLimiterWindowExpiry(t *testing.T) {
	rl := NewJoinRateLimiter(2, 30*time.Millisecond)
	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("budget must allow two attempts")
	}
	if rl.Allow("a") {
		t.Fatal("budget exhausted")
	}
	time.Sleep(40 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatal("window must slide past old attempts")
	}
}
