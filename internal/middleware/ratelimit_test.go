package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

func countingHandler(n *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		w.WriteHeader(http.StatusOK)
	})
}

func postFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = addr
	return req
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("connection refused")
}

// =============================================================================
// RATE LIMITER
// =============================================================================

func TestRateLimiter_RejectsAfterMax(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	var reached atomic.Int32
	handler := RateLimit(RateLimiterConfig{Window: time.Minute, Max: 3, Store: store})(countingHandler(&reached))

	for i := 1; i <= 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, postFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "3", rec.Header().Get("RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(3-i), rec.Header().Get("RateLimit-Remaining"))
		assert.Equal(t, strconv.Itoa(3-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postFrom("10.0.0.1:5001"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, int32(3), reached.Load(), "rejected request must not reach the handler")
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, DefaultRateLimitMessage, body.Error)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	var reached atomic.Int32
	handler := RateLimit(RateLimiterConfig{Window: time.Minute, Max: 1, Store: store})(countingHandler(&reached))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, postFrom(addr))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int32(3), reached.Load())
}

func TestRateLimiter_IgnoresForwardedHeadersByDefault(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	var reached atomic.Int32
	handler := RateLimit(RateLimiterConfig{Window: time.Minute, Max: 1, Store: store})(countingHandler(&reached))

	for i := 0; i < 2; i++ {
		req := postFrom("10.0.0.1:1")
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(1), reached.Load())
}

func TestRateLimiter_ConcurrentRequestsAreCountedExactly(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	const max = 10
	var reached atomic.Int32
	handler := RateLimit(RateLimiterConfig{Window: time.Minute, Max: max, Store: store})(countingHandler(&reached))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.9:1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(max), reached.Load())
}

func TestRateLimiter_WindowResets(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	limiter := NewRateLimiter(RateLimiterConfig{Window: time.Minute, Max: 1, Store: store})
	limiter.now = store.now
	var reached atomic.Int32
	handler := limiter.Middleware(countingHandler(&reached))

	handler.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postFrom("10.0.0.1:1"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, strconv.FormatInt(now.Add(time.Minute).Unix(), 10), rec.Header().Get("X-RateLimit-Reset"))

	now = now.Add(time.Minute)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, postFrom("10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(2), reached.Load())
}

func TestRateLimiter_StoreFailure(t *testing.T) {
	tests := []struct {
		name       string
		failClosed bool
		wantStatus int
	}{
		{"fail open", false, http.StatusOK},
		{"fail closed", true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached atomic.Int32
			handler := RateLimit(RateLimiterConfig{
				Max:        1,
				Store:      failingStore{},
				FailClosed: tt.failClosed,
			})(countingHandler(&reached))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, postFrom("10.0.0.1:1"))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimiter_OnLimited(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	var limited atomic.Int32
	handler := RateLimit(RateLimiterConfig{
		Max:       1,
		Store:     store,
		OnLimited: func(*http.Request) { limited.Add(1) },
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))
	}
	assert.Equal(t, int32(2), limited.Load())
}

// =============================================================================
// STORES
// =============================================================================

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	_, _, _ = store.Increment(context.Background(), "a", time.Second)
	_, _, _ = store.Increment(context.Background(), "b", time.Hour)
	require.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Second)
	store.sweep()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SweepDoesNotDropHits(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = store.Increment(ctx, "a", time.Second)
	now = now.Add(2 * time.Second)

	const n = 200
	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				store.sweep()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Increment(ctx, "a", time.Second)
		}()
	}
	wg.Wait()
	close(stop)
	sweeper.Wait()

	hits, _, err := store.Increment(ctx, "a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, n+1, hits)
}

func TestRedisStore_Increment(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	hits, resetAt, err := store.Increment(ctx, "10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 2*time.Second)

	hits, _, err = store.Increment(ctx, "10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	assert.True(t, mr.Exists("test:10.0.0.1"))
	assert.Greater(t, mr.TTL("test:10.0.0.1"), time.Duration(0))

	mr.FastForward(time.Minute)
	hits, _, err = store.Increment(ctx, "10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "counter restarts after the window expires")
}

func TestRedisStore_WithLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var reached atomic.Int32
	handler := RateLimit(RateLimiterConfig{
		Window: time.Minute,
		Max:    2,
		Store:  NewRedisStore(client, ""),
	})(countingHandler(&reached))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, postFrom("192.0.2.7:4000"))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, int32(2), reached.Load())
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, _, err := NewRedisStore(client, "").Increment(context.Background(), "k", time.Second)
	assert.Error(t, err)
}
