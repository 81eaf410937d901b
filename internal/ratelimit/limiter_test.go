package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	limiter := New(&Config{
		MaxAttempts:  3,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 10,
		Clock:        clock,
	})
	return limiter, clock
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	limiter, _ := newTestLimiter()

	for i := 0; i < 2; i++ {
		if locked := limiter.RecordFailure("user@example.com", "1.2.3.4"); locked {
			t.Fatalf("locked out after %d failures", i+1)
		}
	}
	if locked := limiter.RecordFailure("user@example.com", "1.2.3.4"); !locked {
		t.Fatal("expected lockout on third failure")
	}

	result := limiter.CheckLogin("user@example.com", "1.2.3.4")
	if result.Allowed {
		t.Fatal("expected login blocked during lockout")
	}
	if result.Reason != "lockout" {
		t.Errorf("reason = %q, want lockout", result.Reason)
	}
}

func TestLockoutExpires(t *testing.T) {
	limiter, clock := newTestLimiter()

	for i := 0; i < 3; i++ {
		limiter.RecordFailure("user@example.com", "1.2.3.4")
	}
	clock.advance(5*time.Minute + time.Second)

	if result := limiter.CheckLogin("user@example.com", "1.2.3.4"); !result.Allowed {
		t.Errorf("expected login allowed after lockout expiry, got reason %q", result.Reason)
	}
}

func TestResetClearsFailures(t *testing.T) {
	limiter, _ := newTestLimiter()

	limiter.RecordFailure("user@example.com", "1.2.3.4")
	limiter.RecordFailure("user@example.com", "1.2.3.4")
	limiter.Reset("User@Example.COM")

	limiter.RecordFailure("user@example.com", "1.2.3.4")
	if result := limiter.CheckLogin("user@example.com", "1.2.3.4"); !result.Allowed {
		t.Error("expected counter reset after successful login")
	}
}

func TestIPHourlyLimit(t *testing.T) {
	limiter, _ := newTestLimiter()

	// Distinct accounts so no single identifier locks out.
	accounts := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com",
		"f@x.com", "g@x.com", "h@x.com", "i@x.com", "j@x.com"}
	for _, account := range accounts {
		limiter.RecordFailure(account, "9.9.9.9")
	}

	result := limiter.CheckLogin("k@x.com", "9.9.9.9")
	if result.Allowed {
		t.Fatal("expected IP hourly limit to block")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("reason = %q, want ip_hourly_limit", result.Reason)
	}

	if result := limiter.CheckLogin("k@x.com", "8.8.8.8"); !result.Allowed {
		t.Error("expected different IP unaffected")
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	if got := SanitizeIdentifier("alice@example.com"); got != "al***@example.com" {
		t.Errorf("SanitizeIdentifier = %q", got)
	}
	if got := SanitizeIdentifier("ab@example.com"); got != "***@example.com" {
		t.Errorf("SanitizeIdentifier = %q", got)
	}
}
