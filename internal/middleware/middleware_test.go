package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, user string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, user, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	var gotUser, ctxUser, ctxToken string
	e.GET("/me", func(c echo.Context) error {
		gotUser, _ = UserID(c)
		ctxUser, _ = backend.UserFrom(c.Request().Context())
		ctxToken, _ = backend.TokenFrom(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(secret))

	auth := bearer(t, "op-1")
	rec := serve(e, http.MethodGet, "/me", auth)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "op-1", gotUser)
	assert.Equal(t, "op-1", ctxUser)
	assert.Equal(t, auth[len("Bearer "):], ctxToken)
}

func TestJWTAuth_Rejects(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, JWTAuth(secret))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "Basic abc").Code)
}

func limited(t *testing.T, cfg config.RateLimitConfig, rdb redis.Scripter) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("", JWTAuth(secret), NewTokenBucket(cfg, rdb, nil))
	g.POST("/hold", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func TestTokenBucket_ThrottlesPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute, TTL: 10 * time.Minute, KeyStrategy: "user_route", Prefix: "rl"}
	e := limited(t, cfg, rdb)
	alice, bob := bearer(t, "alice"), bearer(t, "bob")

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/hold", alice).Code)
	rec := serve(e, http.MethodPost, "/hold", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodPost, "/hold", alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/hold", bob).Code, "buckets are per user")
	assert.True(t, mr.Exists("rl:user:alice:route:POST /hold"))
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Hour}
	e := limited(t, cfg, rdb)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/hold", bearer(t, "alice")).Code)
	}
}

func TestTokenBucket_Disabled(t *testing.T) {
	e := limited(t, config.RateLimitConfig{Enabled: false}, nil)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/hold", bearer(t, "alice")).Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "down") })

	serve(e, http.MethodGet, "/ok", "")
	rec := serve(e, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
}
