package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRateLimitMessage is returned with every 429.
const DefaultRateLimitMessage = "Too many requests, please try again later."

// Store counts hits per key in fixed windows.
// Implementations must make Increment atomic per key.
type Store interface {
	// Increment records one hit for key and returns the number of hits in the
	// current window and the time that window ends.
	Increment(ctx context.Context, key string, window time.Duration) (hits int, resetAt time.Time, err error)
}

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// Window is the length of one counting window
	Window time.Duration

	// Max is the number of requests allowed per key and window
	Max int

	// KeyFunc extracts the rate limit key from the request
	// Default: socket peer address
	KeyFunc func(r *http.Request) string

	// Store holds the counters. Default: a MemoryStore
	Store Store

	// FailClosed rejects requests when the store is unreachable.
	// By default they are let through and the error is logged.
	FailClosed bool

	// Message is the 429 error text
	Message string

	// OnLimited is called for every rejected request
	OnLimited func(r *http.Request)
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Window:  time.Minute,
		Max:     5,
		KeyFunc: RemoteIP,
		Message: DefaultRateLimitMessage,
	}
}

// RateLimiter is a fixed window rate limiter
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.Max <= 0 {
		config.Max = def.Max
	}
	if config.KeyFunc == nil {
		config.KeyFunc = def.KeyFunc
	}
	if config.Message == "" {
		config.Message = def.Message
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(config.Window)
	}

	return &RateLimiter{config: config, now: time.Now}
}

// Middleware returns an HTTP middleware that applies rate limiting.
// Both the standard RateLimit-* and the legacy X-RateLimit-* headers are set
// on every response.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)

		hits, resetAt, err := rl.config.Store.Increment(r.Context(), key, rl.config.Window)
		if err != nil {
			GetLogger(r.Context()).Error("rate limit store failed",
				"error", err,
				"fail_closed", rl.config.FailClosed,
			)
			if rl.config.FailClosed {
				respondInternalError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.config.Max - hits
		if remaining < 0 {
			remaining = 0
		}
		resetIn := int(math.Ceil(resetAt.Sub(rl.now()).Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}

		h := w.Header()
		limit := strconv.Itoa(rl.config.Max)
		h.Set("RateLimit-Limit", limit)
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(resetIn))
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(float64(resetAt.UnixMilli())/1000)), 10))

		if hits > rl.config.Max {
			h.Set("Retry-After", strconv.Itoa(resetIn))
			if rl.config.OnLimited != nil {
				rl.config.OnLimited(r)
			}
			GetLogger(r.Context()).Info("rate limit exceeded",
				"state", domain.StateRateLimited,
				"key", key,
				"hits", hits,
			)
			respondTooManyRequests(w, r, rl.config.Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit creates a rate limiting middleware with the given config
func RateLimit(config RateLimiterConfig) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(config)
	return limiter.Middleware
}

// ============================================================================
// MEMORY STORE
// ============================================================================

// fixedWindow is one key's counter
type fixedWindow struct {
	mu      sync.Mutex
	hits    int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	windows map[string]*fixedWindow
	mu      sync.Mutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a MemoryStore that drops expired windows every
// cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	s := &MemoryStore{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go s.cleanup(cleanupInterval)

	return s
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	fw, ok := s.windows[key]
	if !ok {
		fw = &fixedWindow{}
		s.windows[key] = fw
	}
	// lock the window before releasing the map so sweep cannot drop it
	// between lookup and reset
	fw.mu.Lock()
	s.mu.Unlock()
	defer fw.mu.Unlock()

	now := s.now()
	if !now.Before(fw.resetAt) {
		fw.hits = 0
		fw.resetAt = now.Add(window)
	}
	fw.hits++

	return fw.hits, fw.resetAt, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// cleanup removes expired windows periodically
func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, fw := range s.windows {
		fw.mu.Lock()
		if !now.Before(fw.resetAt) {
			delete(s.windows, key)
		}
		fw.mu.Unlock()
	}
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// ============================================================================
// REDIS STORE
// ============================================================================

// incrementScript bumps the counter and starts the window on the first hit.
// Returns {hits, milliseconds until reset}.
var incrementScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {hits, ttl}
`)

// RedisStore keeps counters in Redis so several instances share one limit.
type RedisStore struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. Keys are written as prefix+key.
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("redis rate limit: unexpected reply %v", res)
	}

	resetAt := s.now().Add(time.Duration(res[1]) * time.Millisecond)
	return int(res[0]), resetAt, nil
}

// NewRedisClient parses url and checks the server is reachable.
func NewRedisClient(ctx context.Context, url, password string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}
