package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hakikicode/SmartDesign/pkg/appenv"
	"github.com/hakikicode/SmartDesign/types"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiterStore maps client IPs to token buckets.
// A background janitor removes stale entries to avoid unbounded memory growth.
type ipLimiterStore struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	staleAfter time.Duration
}

func newIPLimiterStore(staleAfter time.Duration) *ipLimiterStore {
	store := &ipLimiterStore{
		entries:    make(map[string]*limiterEntry),
		staleAfter: staleAfter,
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			store.cleanup(time.Now())
		}
	}()
	return store
}

func (s *ipLimiterStore) getOrCreate(key string, r rate.Limit, burst int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}
	lim := rate.NewLimiter(r, burst)
	s.entries[key] = &limiterEntry{limiter: lim, lastSeen: time.Now()}
	return lim
}

func (s *ipLimiterStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.staleAfter)
	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// RateLimitConfig controls the ingestion limiter.
type RateLimitConfig struct {
	Enabled   bool
	RPS       rate.Limit
	Burst     int
	Whitelist []*net.IPNet
}

// RateLimitConfigFromEnv reads:
// - RATE_LIMIT_ENABLED (bool, default true; always off when APP_ENV=test)
// - RATE_LIMIT_RPS (float, default 20)
// - RATE_LIMIT_BURST (int, default 50)
// - RATE_LIMIT_WHITELIST (comma-separated IPs or CIDRs)
func RateLimitConfigFromEnv() RateLimitConfig {
	cfg := RateLimitConfig{Enabled: true, RPS: 20, Burst: 50}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED"))); v == "0" || v == "false" || v == "no" {
		cfg.Enabled = false
	}
	if appenv.IsTest() {
		cfg.Enabled = false
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RPS = rate.Limit(f)
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.Burst = i
		}
	}
	cfg.Whitelist = parseWhitelist(os.Getenv("RATE_LIMIT_WHITELIST"))
	return cfg
}

// parseWhitelist accepts single IPs and CIDRs; single IPs become host-sized networks.
func parseWhitelist(raw string) []*net.IPNet {
	var nets []*net.IPNet
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if ip := net.ParseIP(p); ip != nil {
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		if _, n, err := net.ParseCIDR(p); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func isWhitelisted(clientIP string, nets []*net.IPNet) bool {
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware applies the environment-configured per-IP token bucket.
func RateLimitMiddleware() gin.HandlerFunc {
	return NewRateLimiter(RateLimitConfigFromEnv())
}

// NewRateLimiter performs per-IP token bucket limiting for producers. Preflight requests pass through.
func NewRateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	store := newIPLimiterStore(10 * time.Minute)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		if isWhitelisted(clientIP, cfg.Whitelist) {
			c.Next()
			return
		}
		lim := store.getOrCreate("ip:"+clientIP, cfg.RPS, cfg.Burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, types.NewErrorResponse(types.ErrorCodeRateLimitExceeded, "Too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
