// File: internal/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxAttempts:   3,
		BanDuration:   time.Hour,
		CleanupPeriod: time.Hour,
	}
}

func TestLimiterAllowsWithinWindow(t *testing.T) {
	limiter := New(testConfig())
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		allowed, decision := limiter.Allow("1.2.3.4")
		if !allowed {
			t.Fatalf("attempt %d blocked within limit", i+1)
		}
		if decision.Remaining != 3-(i+1) {
			t.Errorf("attempt %d: remaining = %d, want %d", i+1, decision.Remaining, 3-(i+1))
		}
	}
}

func TestLimiterBansAfterLimit(t *testing.T) {
	limiter := New(testConfig())
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		limiter.Allow("1.2.3.4")
	}

	allowed, decision := limiter.Allow("1.2.3.4")
	if allowed {
		t.Fatal("fourth attempt allowed past the limit")
	}
	if !decision.Banned {
		t.Error("exceeding the limit did not ban")
	}
	if decision.RetryAfter <= 0 {
		t.Error("ban carries no retry-after")
	}

	// Still banned on the next attempt.
	if allowed, _ := limiter.Allow("1.2.3.4"); allowed {
		t.Error("attempt allowed while banned")
	}
}

func TestLimiterIsolatesIdentifiers(t *testing.T) {
	limiter := New(testConfig())
	defer limiter.Close()

	for i := 0; i < 4; i++ {
		limiter.Allow("1.2.3.4")
	}
	if allowed, _ := limiter.Allow("5.6.7.8"); !allowed {
		t.Error("unrelated identifier blocked")
	}
}

func TestRecordSuccessResetsAttempts(t *testing.T) {
	limiter := New(testConfig())
	defer limiter.Close()

	limiter.Allow("1.2.3.4")
	limiter.Allow("1.2.3.4")
	limiter.RecordSuccess("1.2.3.4")

	_, decision := limiter.Allow("1.2.3.4")
	if decision.Remaining != 2 {
		t.Errorf("remaining after reset = %d, want 2", decision.Remaining)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.1:5000", nil, "10.0.0.1"},
		{"x-forwarded-for", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"x-real-ip", "10.0.0.1:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
