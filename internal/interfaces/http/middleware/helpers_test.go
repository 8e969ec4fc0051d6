package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/returns/internal/infrastructure/auth"
	"github.com/erp/returns/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:         "middleware-test-secret-32-chars!!",
		Issuer:         "returns-engine",
		AccessTokenTTL: time.Hour,
	})
}

func bearer(t *testing.T, svc *auth.JWTService, storeID uuid.UUID, role auth.Role) string {
	t.Helper()
	token, _, err := svc.IssueAccessToken(auth.IssueInput{StoreID: storeID, ActorID: uuid.New(), Role: role})
	require.NoError(t, err)
	return BearerPrefix + token
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
