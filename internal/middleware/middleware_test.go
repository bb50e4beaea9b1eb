package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insighthub/internal/model"
)

type staticResolver struct {
	token string
	user  *model.User
}

func (r *staticResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token != r.token {
		return nil, errors.New("bad token")
	}
	return r.user, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		email := ""
		if u, ok := CurrentUser(c); ok {
			email = u.Email
		}
		c.String(http.StatusOK, "pong "+email)
	})
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newEngine(JWTAuth(&staticResolver{token: "good", user: &model.User{ID: "u1", Email: "a@b.c"}}))

	assert.Equal(t, http.StatusUnauthorized, do(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Basic good"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Bearer bad"}).Code)

	w := do(r, map[string]string{"Authorization": "bearer good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong a@b.c", w.Body.String())
}

func TestRateLimitBlocksBurst(t *testing.T) {
	r := newEngine(RateLimit(1, 2))

	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, nil).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(RateLimit(0, 0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, nil).Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = do(r, map[string]string{"X-Request-Id": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"https://app.example.com"}))

	w := do(r, map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := newEngine(CORS(nil))
	w = do(open, map[string]string{"Origin": "https://any.example.com"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
