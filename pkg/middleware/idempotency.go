package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header name for the idempotency key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// DefaultIdempotencyTTL covers network retries of completed requests
	DefaultIdempotencyTTL = 5 * time.Minute
	// DefaultProcessingTTL bounds how long an in-flight record blocks retries
	DefaultProcessingTTL = 60 * time.Second

	idempotencyKeyPrefix = "idempotency:"
	contextKey           = "idempotency_key"
)

// recordStatus tracks an idempotency record through its lifecycle
type recordStatus string

const (
	statusProcessing recordStatus = "processing"
	statusCompleted  recordStatus = "completed"
)

// record stores the state of an idempotent request
type record struct {
	Key          string       `json:"key"`
	Status       recordStatus `json:"status"`
	RequestHash  string       `json:"request_hash"`
	ResponseCode int          `json:"response_code"`
	ResponseBody string       `json:"response_body"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// RedisClient is the subset of redis operations the middleware needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Redis RedisClient
	// TTL for completed records
	TTL time.Duration
	// ProcessingTTL for in-flight records
	ProcessingTTL time.Duration
}

// DefaultIdempotencyConfig returns the default configuration
func DefaultIdempotencyConfig(redisClient RedisClient) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis:         redisClient,
		TTL:           DefaultIdempotencyTTL,
		ProcessingTTL: DefaultProcessingTTL,
	}
}

// Idempotency deduplicates stock mutations retried over the network. The
// caller supplies an X-Idempotency-Key header; a repeat of the same request
// under the same key replays the stored response instead of mutating again.
// Requests without the header pass through untouched.
func Idempotency(cfg *IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultIdempotencyTTL
	}
	if cfg.ProcessingTTL == 0 {
		cfg.ProcessingTTL = DefaultProcessingTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		c.Set(contextKey, key)

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		requestHash := hashRequest(c, bodyBytes)
		redisKey := idempotencyKeyPrefix + key
		ctx := c.Request.Context()

		existing, err := getRecord(ctx, cfg.Redis, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			// redis trouble; fail open rather than block mutations
			c.Next()
			return
		}

		if existing != nil {
			replay(c, existing, requestHash)
			return
		}

		rec := &record{
			Key:         key,
			Status:      statusProcessing,
			RequestHash: requestHash,
			CreatedAt:   time.Now(),
		}

		if !trySetRecord(ctx, cfg.Redis, redisKey, rec, cfg.ProcessingTTL) {
			// lost the race to a concurrent request with the same key
			if existing, _ = getRecord(ctx, cfg.Redis, redisKey); existing != nil {
				replay(c, existing, requestHash)
				return
			}
		}

		rw := &captureWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = rw

		c.Next()

		now := time.Now()
		rec.Status = statusCompleted
		rec.ResponseCode = rw.status
		rec.ResponseBody = rw.body.String()
		rec.CompletedAt = &now
		_ = saveRecord(ctx, cfg.Redis, redisKey, rec, cfg.TTL)
	}
}

// GetIdempotencyKey extracts the idempotency key from a gin context
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, exists := c.Get(contextKey)
	if !exists {
		return "", false
	}
	k, ok := v.(string)
	return k, ok
}

func replay(c *gin.Context, existing *record, requestHash string) {
	if existing.RequestHash != requestHash {
		response.Error(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
			"idempotency key already used with a different request", "")
		c.Abort()
		return
	}
	if existing.Status == statusProcessing {
		response.Error(c, http.StatusConflict, "REQUEST_IN_PROGRESS",
			"a request with this idempotency key is already being processed", "")
		c.Abort()
		return
	}
	c.Data(existing.ResponseCode, "application/json", []byte(existing.ResponseBody))
	c.Abort()
}

// captureWriter mirrors the response into a buffer for replay
type captureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func hashRequest(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	if userID := c.GetInt64("user_id"); userID != 0 {
		h.Write([]byte(strconv.FormatInt(userID, 10)))
	}
	if len(body) > 0 {
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func getRecord(ctx context.Context, client RedisClient, key string) (*record, error) {
	result, err := client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func trySetRecord(ctx context.Context, client RedisClient, key string, rec *record, ttl time.Duration) bool {
	data, err := json.Marshal(rec)
	if err != nil {
		return false
	}
	ok, err := client.SetNX(ctx, key, string(data), ttl).Result()
	return err == nil && ok
}

func saveRecord(ctx context.Context, client RedisClient, key string, rec *record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, string(data), ttl).Err()
}
