// Package ratelimit throttles logins and chat sends with fixed per-key
// windows held in memory.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter allows up to limit events per key in each window. A window opens
// with the first event for a key and lasts for the configured duration.
// It is safe for concurrent use.
type Limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	used  int
	reset time.Time
}

// New returns a Limiter for limit events per period. A non-positive limit
// or period disables limiting. Call Stop to end the sweep goroutine.
func New(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		buckets: make(map[string]bucket),
		stop:    make(chan struct{}),
	}
	if l.enabled() {
		go l.sweep(2 * period)
	}
	return l
}

func (l *Limiter) enabled() bool { return l.limit > 0 && l.period > 0 }

// Stop ends the sweep goroutine. Calling it again is a no-op.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Allow records one event for key and reports whether it fits the window.
// A rejected event is not counted.
func (l *Limiter) Allow(key string) bool {
	if !l.enabled() {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.reset) {
		l.buckets[key] = bucket{used: 1, reset: now.Add(l.period)}
		return true
	}
	if b.used >= l.limit {
		return false
	}
	b.used++
	l.buckets[key] = b
	return true
}

// Remaining is the number of events key may still make in its window.
func (l *Limiter) Remaining(key string) int {
	if !l.enabled() {
		return l.limit
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok || !l.now().Before(b.reset) {
		return l.limit
	}
	return max(l.limit-b.used, 0)
}

// RetryAfter is how long key must wait before its next event is allowed;
// zero when it may proceed now.
func (l *Limiter) RetryAfter(key string) time.Duration {
	if !l.enabled() {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok || b.used < l.limit {
		return 0
	}
	return max(b.reset.Sub(l.now()), 0)
}

// Reset forgets key's window.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Limiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
		}
		l.mu.Lock()
		now := l.now()
		for key, b := range l.buckets {
			if !now.Before(b.reset) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP returns the caller's address: the first X-Forwarded-For hop,
// then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Verdict is the outcome of a login check.
type Verdict struct {
	Allowed    bool
	Reason     string        // user-facing, set when !Allowed
	RetryAfter time.Duration // set when !Allowed
}

// LoginLimiter throttles sign-in attempts per client IP and per email, so
// neither one address spraying many accounts nor many addresses hammering
// one account gets through.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter uses 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig sets both limits explicitly.
func NewLoginLimiterWithConfig(ipLimit int, ipPeriod time.Duration, emailLimit int, emailPeriod time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipPeriod),
		byEmail: New(emailLimit, emailPeriod),
	}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Check counts one attempt from r for email. The IP limit is checked first;
// a blank email is only IP-limited.
func (ll *LoginLimiter) Check(r *http.Request, email string) Verdict {
	ip := ClientIP(r)
	if !ll.byIP.Allow(ip) {
		return Verdict{
			Reason:     "Too many login attempts. Please wait a minute before trying again.",
			RetryAfter: ll.byIP.RetryAfter(ip),
		}
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return Verdict{
			Reason:     "Too many login attempts for this account. Please wait a few minutes.",
			RetryAfter: ll.byEmail.RetryAfter(key),
		}
	}
	return Verdict{Allowed: true}
}

// ResetEmail clears email's window after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

// Stop ends both sweep goroutines.
func (ll *LoginLimiter) Stop() {
	ll.byIP.Stop()
	ll.byEmail.Stop()
}
