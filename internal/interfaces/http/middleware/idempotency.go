package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the optional client-supplied request key
const IdempotencyKeyHeader = "Idempotency-Key"

// DefaultIdempotencyTTL is how long a key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

const maxIdempotencyKeyLength = 128

// Idempotency claims the Idempotency-Key of a mutating request before the
// handler runs. A key seen before answers 409 DUPLICATE_REQUEST. A key whose
// request did not succeed is released so the client may retry it. Requests
// without the header pass through. Store errors fail open.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		requestID := logger.GetRequestID(c.Request.Context())
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeValidation, "Idempotency-Key is too long", requestID))
			return
		}

		// keys are scoped per store and route
		scoped := GetStoreID(c).String() + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		log := logger.GetGinLogger(c)

		fresh, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			log.Warn("idempotency store unavailable, processing request", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed", requestID))
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
			defer cancel()
			if err := store.Forget(ctx, scoped); err != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
