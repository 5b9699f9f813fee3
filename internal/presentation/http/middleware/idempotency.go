package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/logger"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the cache
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// DefaultIdempotencyKeyTTL is how long keys are valid when no TTL is configured
	DefaultIdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo   repository.IdempotencyRepository
	Locker lock.Locker
	TTL    time.Duration
	Log    *logger.Logger
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a mutating request retried with the same
// Idempotency-Key by the same actor. Concurrent retries are serialized through the locker,
// so the second one waits and then replays. Only 2xx responses are stored; a failed
// request may be retried with the same key.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyKeyTTL
	}
	locker := config.Locker
	if locker == nil {
		locker = lock.NewNoop()
	}
	log := config.Log
	if log == nil {
		log = logger.NewNop()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			response.BadRequest(c, IdempotencyKeyHeader+" header is too long")
			c.Abort()
			return
		}

		actorID := GetActorID(c)
		if actorID == uuid.Nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		unlock, err := locker.Lock(ctx, []string{lock.IdempotencyKey(actorID.String(), idempotencyKey)})
		if err != nil {
			if errors.Is(err, lock.ErrNotObtained) {
				response.ErrorWithCode(c, http.StatusConflict, "A request with this Idempotency-Key is in progress")
			} else {
				response.ErrorWithCode(c, http.StatusServiceUnavailable, "Could not check Idempotency-Key")
			}
			c.Abort()
			return
		}
		defer unlock()

		existing, err := config.Repo.GetByKey(ctx, idempotencyKey, actorID)
		if err != nil {
			log.Error("idempotency lookup failed", "error", err, "actor_id", actorID)
			response.ErrorWithCode(c, http.StatusInternalServerError, "Failed to check idempotency key")
			c.Abort()
			return
		}

		endpoint := c.Request.Method + " " + c.FullPath()
		if existing != nil {
			if !existing.IsExpired() {
				if existing.Endpoint != endpoint {
					response.ErrorWithCode(c, http.StatusUnprocessableEntity, "Idempotency-Key was already used for another endpoint")
					c.Abort()
					return
				}
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
				c.Abort()
				return
			}
			if err := config.Repo.Delete(ctx, existing.ID); err != nil {
				log.Warn("failed to drop expired idempotency key", "error", err, "key_id", existing.ID)
			}
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          idempotencyKey,
			ActorID:      actorID,
			Endpoint:     endpoint,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    time.Now().Add(ttl),
		}
		if err := config.Repo.Create(ctx, ikey); err != nil {
			log.Warn("failed to store idempotency key", "error", err, "actor_id", actorID)
		}
	}
}
