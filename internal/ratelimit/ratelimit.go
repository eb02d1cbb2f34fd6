// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds the limiter's window and ban settings.
type Config struct {
	WindowSize    time.Duration
	MaxAttempts   int
	BanDuration   time.Duration
	CleanupPeriod time.Duration
}

// AuthConfig limits credential guessing on the login and register routes.
func AuthConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxAttempts:   5,
		BanDuration:   30 * time.Minute,
		CleanupPeriod: 30 * time.Minute,
	}
}

// RelayConfig limits how fast one client can push messages through the
// hosted assistant. Generous compared to auth: normal chatting stays
// well under it.
func RelayConfig() *Config {
	return &Config{
		WindowSize:    1 * time.Minute,
		MaxAttempts:   20,
		BanDuration:   5 * time.Minute,
		CleanupPeriod: 10 * time.Minute,
	}
}

// Decision reports the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

type record struct {
	count     int
	firstSeen time.Time
	bannedAt  *time.Time
}

// Limiter is a fixed-window in-memory rate limiter with a ban period
// for identifiers that blow through the limit.
type Limiter struct {
	config  *Config
	mu      sync.Mutex
	records map[string]*record
	stopCh  chan struct{}
}

func New(config *Config) *Limiter {
	l := &Limiter{
		config:  config,
		records: make(map[string]*record),
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow counts one attempt for identifier and reports whether it may
// proceed.
func (l *Limiter) Allow(identifier string) (bool, *Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	rec, exists := l.records[identifier]

	if !exists || (now.Sub(rec.firstSeen) > l.config.WindowSize && rec.bannedAt == nil) {
		l.records[identifier] = &record{count: 1, firstSeen: now}
		return true, &Decision{
			Allowed:   true,
			Remaining: l.config.MaxAttempts - 1,
			ResetTime: now.Add(l.config.WindowSize),
		}
	}

	if rec.bannedAt != nil {
		if elapsed := now.Sub(*rec.bannedAt); elapsed < l.config.BanDuration {
			return false, &Decision{
				ResetTime:  rec.bannedAt.Add(l.config.BanDuration),
				RetryAfter: l.config.BanDuration - elapsed,
				Banned:     true,
			}
		}
		// Ban expired, start a fresh window.
		l.records[identifier] = &record{count: 1, firstSeen: now}
		return true, &Decision{
			Allowed:   true,
			Remaining: l.config.MaxAttempts - 1,
			ResetTime: now.Add(l.config.WindowSize),
		}
	}

	rec.count++
	if rec.count > l.config.MaxAttempts {
		banTime := now
		rec.bannedAt = &banTime
		return false, &Decision{
			ResetTime:  now.Add(l.config.BanDuration),
			RetryAfter: l.config.BanDuration,
			Banned:     true,
		}
	}

	return true, &Decision{
		Allowed:   true,
		Remaining: l.config.MaxAttempts - rec.count,
		ResetTime: rec.firstSeen.Add(l.config.WindowSize),
	}
}

// RecordSuccess forgets an identifier's attempts, so a successful login
// does not count toward the next lockout.
func (l *Limiter) RecordSuccess(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, identifier)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for id, rec := range l.records {
		windowExpired := now.Sub(rec.firstSeen) > l.config.WindowSize
		banExpired := rec.bannedAt != nil && now.Sub(*rec.bannedAt) > l.config.BanDuration
		if (windowExpired && rec.bannedAt == nil) || banExpired {
			delete(l.records, id)
		}
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stopCh)
}

// GetClientIP extracts the client IP, honoring proxy headers.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
