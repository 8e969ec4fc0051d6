// Package middleware provides the gin middleware of the returns API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/returns/internal/infrastructure/auth"
	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTStoreIDKey = "jwt_store_id"
	JWTActorIDKey = "jwt_actor_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's store and actor on the gin context
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing bearer token")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing bearer token")
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, log, err, "Invalid token")
			return
		}
		storeID, _ := claims.StoreUUID()
		actorID, _ := claims.ActorUUID()

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTStoreIDKey, storeID)
		c.Set(JWTActorIDKey, actorID)

		ctx := c.Request.Context()
		ctx, reqLogger := logger.WithStoreID(ctx, logger.GetGinLogger(c), claims.StoreID)
		ctx, reqLogger = logger.WithActorID(ctx, reqLogger, claims.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinLoggerKey, reqLogger)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	if errors.Is(err, auth.ErrExpiredToken) {
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(code, message, logger.GetRequestID(c.Request.Context())))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, ok := c.Get(JWTClaimsKey); ok {
		if jc, ok := claims.(*auth.Claims); ok {
			return jc
		}
	}
	return nil
}

// GetStoreID returns the authenticated store, or uuid.Nil
func GetStoreID(c *gin.Context) uuid.UUID {
	return uuidFromContext(c, JWTStoreIDKey)
}

// GetActorID returns the authenticated actor, or uuid.Nil
func GetActorID(c *gin.Context) uuid.UUID {
	return uuidFromContext(c, JWTActorIDKey)
}

func uuidFromContext(c *gin.Context, key string) uuid.UUID {
	if v, ok := c.Get(key); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
