package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory stand-in for the redis operations the middleware
// uses. TTLs are ignored; tests never wait that long.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func setupIdempotentRouter(store RedisClient, handlerCalls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Idempotency(DefaultIdempotencyConfig(store)))
	router.POST("/buy", func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusOK, gin.H{"stock": 10 - *handlerCalls})
	})
	return router
}

func postBuy(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/buy", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), &calls)

	first := postBuy(router, "key-1", `{"quantity":1}`)
	second := postBuy(router, "key-1", `{"quantity":1}`)

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Errorf("codes = %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replay body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuse(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), &calls)

	postBuy(router, "key-1", `{"quantity":1}`)
	w := postBuy(router, "key-1", `{"quantity":5}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body = %s", w.Code, w.Body.String())
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), &calls)

	postBuy(router, "", `{"quantity":1}`)
	postBuy(router, "", `{"quantity":1}`)

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotencyDistinctKeysRunIndependently(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), &calls)

	postBuy(router, "key-1", `{"quantity":1}`)
	postBuy(router, "key-2", `{"quantity":1}`)

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}
