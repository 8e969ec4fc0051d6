package middleware

import (
	"net/http"

	"github.com/erp/returns/internal/infrastructure/auth"
	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRole lets the request through only when the token carries one of
// the given roles. It must run after JWTAuth.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Authentication required", logger.GetRequestID(c.Request.Context())))
			return
		}
		if !claims.HasRole(roles...) {
			logger.GetGinLogger(c).Warn("role check failed",
				zap.String("role", string(claims.Role)),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.ErrCodeForbidden, "Insufficient role for this operation", logger.GetRequestID(c.Request.Context())))
			return
		}
		c.Next()
	}
}

// IsCustomer reports whether the caller authenticated as a customer
func IsCustomer(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.Role == auth.RoleCustomer
}
