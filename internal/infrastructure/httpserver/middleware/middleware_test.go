package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/ledger/internal/core/domain/auth"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver/middleware"
	"github.com/avatarctic/ledger/test/mocks"
)

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireJWT_DisabledPassesThrough(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&mocks.AuthServiceMock{EnabledFn: func() bool { return false }}, nil)
	handler := m.RequireJWT()(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", helpers.GetSubject(c))
}

func TestRequireJWT_MissingHeader(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&mocks.AuthServiceMock{}, nil)
	handler := m.RequireJWT()(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestRequireJWT_InvalidToken(t *testing.T) {
	e := echo.New()
	authMock := &mocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return nil, errors.New("token is expired")
	}}
	m := middleware.NewJWTMiddleware(authMock, nil)
	handler := m.RequireJWT()(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
	require.Equal(t, "invalid or expired token", htErr.Message)
}

func TestRequireJWT_ValidTokenSetsSubject(t *testing.T) {
	e := echo.New()
	var gotToken string
	authMock := &mocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		gotToken = token
		claims := &auth.Claims{Scope: auth.ScopeLedger}
		claims.Subject = "shop-1"
		return claims, nil
	}}
	m := middleware.NewJWTMiddleware(authMock, nil)
	handler := m.RequireJWT()(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, "good", gotToken)
	require.Equal(t, "shop-1", helpers.GetSubject(c))
}

func TestRequireJWT_WrongScopeIsForbidden(t *testing.T) {
	e := echo.New()
	authMock := &mocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		claims := &auth.Claims{Scope: "admin"}
		claims.Subject = "shop-1"
		return claims, nil
	}}
	called := false
	handler := middleware.NewJWTMiddleware(authMock, nil).RequireJWT()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer other-scope")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, htErr.Code)
	require.False(t, called)
	_, hasSubject := helpers.GetSubjectRaw(c)
	require.False(t, hasSubject)
}

func TestRateLimit_DeniedReturns429WithHeaders(t *testing.T) {
	e := echo.New()
	reset := time.Now().Add(30 * time.Second)
	var gotKey string
	limiter := &mocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, key string) (bool, int, int, time.Time, error) {
		gotKey = key
		return false, 0, 30, reset, nil
	}}
	handler := middleware.NewRateLimitMiddleware(limiter, nil).Handler()(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse-voice", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, htErr.Code)
	require.Equal(t, "ip:10.0.0.9", gotKey)
	require.Equal(t, "30", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_KeysBySubjectAndFailsOpen(t *testing.T) {
	e := echo.New()
	var gotKey string
	limiter := &mocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, key string) (bool, int, int, time.Time, error) {
		gotKey = key
		return true, 60, 30, time.Now(), errors.New("redis down")
	}}
	handler := middleware.NewRateLimitMiddleware(limiter, nil).Handler()(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/asr/recognize", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	helpers.SetSubject(c, "shop-1")
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "sub:shop-1", gotKey)
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	e := echo.New()
	handler := middleware.NewRateLimitMiddleware(nil, nil).Handler()(okHandler)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, handler(c))
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
