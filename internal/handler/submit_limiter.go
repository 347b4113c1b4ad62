package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	submitWindow = time.Minute
	sweepEvery   = 5 * time.Minute
)

// recentSubmits holds the times of a client's submissions inside the
// current window, oldest first.
type recentSubmits []time.Time

// since drops entries at or before cutoff. It reuses the backing array.
func (s recentSubmits) since(cutoff time.Time) recentSubmits {
	i := 0
	for i < len(s) && !s[i].After(cutoff) {
		i++
	}
	return append(s[:0], s[i:]...)
}

// RateLimiter caps how many audit requests one client address may submit
// per minute. State is in memory, so each server process counts separately.
type RateLimiter struct {
	perMinute int
	// proxyHops is the number of reverse proxies in front of the server
	// that each append the address they received the request from.
	proxyHops int
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]recentSubmits

	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter starts a limiter allowing perMinute submissions per client.
// The server runs behind one load balancer, so one forwarding hop is trusted.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := newRateLimiter(perMinute, 1, time.Now)
	go rl.sweepLoop()
	return rl
}

func newRateLimiter(perMinute, proxyHops int, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		proxyHops: proxyHops,
		now:       now,
		clients:   make(map[string]recentSubmits),
		done:      make(chan struct{}),
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

// sweep forgets clients with no submissions left in the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-submitWindow)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for addr, recent := range rl.clients {
		if recent = recent.since(cutoff); len(recent) == 0 {
			delete(rl.clients, addr)
		} else {
			rl.clients[addr] = recent
		}
	}
}

// allow records a submission from addr if it is under the limit. Otherwise
// it reports how long until the oldest submission leaves the window.
func (rl *RateLimiter) allow(addr string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.clients[addr].since(now.Add(-submitWindow))
	if len(recent) >= rl.perMinute {
		rl.clients[addr] = recent
		return false, recent[0].Add(submitWindow).Sub(now)
	}
	rl.clients[addr] = append(recent, now)
	return true, 0
}

// Middleware rejects submissions over the limit with a 429 envelope.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := rl.clientAddr(r)
		ok, wait := rl.allow(addr)
		if !ok {
			slog.Warn("audit submission throttled",
				"request_id", RequestIDFromContext(r.Context()),
				"client_ip", addr,
				"retry_in", wait.String(),
			)
			w.Header().Set("Retry-After", retryAfter(wait))
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter renders wait as whole seconds, rounded up, at least 1.
func retryAfter(wait time.Duration) string {
	secs := int64((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// clientAddr returns the submitter's address. Entries left of the ones our
// proxies appended are client-controlled and never read. A trusted entry
// that is not an IP falls back to the connection address.
func (rl *RateLimiter) clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.proxyHops > 0 {
		hops := strings.Split(xff, ",")
		if i := len(hops) - rl.proxyHops; i >= 0 {
			if ip := net.ParseIP(strings.TrimSpace(hops[i])); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
