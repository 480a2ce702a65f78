package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/session"
)

func init() { gin.SetMode(gin.TestMode) }

// ErrorHandler maps an apperrors.Kind stashed via c.Error into the
// matching HTTP status and JSON envelope (SPEC_FULL.md §7).
func TestErrorHandler_MapsKindToStatusAndEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("contest already approved"))
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, string(apperrors.KindConflict), errBody["kind"])
	assert.Equal(t, "contest already approved", errBody["message"])
}

// A panic inside a handler is recovered as a 500 instead of crashing the
// server.
func TestErrorHandler_RecoversPanicAsInternal(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) {
		panic("unexpected nil pointer")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// A RateLimited error carries Retry-After both in the body and as a
// response header.
func TestErrorHandler_RateLimitedSetsRetryAfterHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/limited", func(c *gin.Context) {
		_ = c.Error(apperrors.RateLimited("too many OTP requests", 30))
	})

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

// RequireSession rejects a request with no bearer token before the
// handler ever runs.
func TestRequireSession_RejectsMissingToken(t *testing.T) {
	sessions := session.New("test-secret", time.Hour, 24*time.Hour, clock.NewFixed(time.Now()))
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/me", RequireSession(sessions), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// A validly minted access token is accepted and the actor is made
// available to the downstream handler.
func TestRequireSession_AcceptsValidAccessToken(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	sessions := session.New("test-secret", time.Hour, 24*time.Hour, clk)
	token, _, err := sessions.Mint(&user.User{ID: 99, Phone: "+15550001111", Role: user.RoleUser}, false)
	require.NoError(t, err)

	var seenUserID int64
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/me", RequireSession(sessions), func(c *gin.Context) {
		seenUserID = actorFrom(c).UserID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(99), seenUserID)
}

// RequireSession rejects a refresh token presented where an access
// token is required (SPEC_FULL.md §4.4 WrongTokenType).
func TestRequireSession_RejectsRefreshTokenUsedAsAccessToken(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	sessions := session.New("test-secret", time.Hour, 24*time.Hour, clk)
	_, refreshToken, err := sessions.Mint(&user.User{ID: 99, Phone: "+15550001111", Role: user.RoleUser}, true)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/me", RequireSession(sessions), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// OptionalSession never aborts, degrading to an unauthenticated Actor
// when no token is supplied.
func TestOptionalSession_DegradesGracefullyWithoutToken(t *testing.T) {
	sessions := session.New("test-secret", time.Hour, 24*time.Hour, clock.NewFixed(time.Now()))
	var sawAuthenticated bool
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zerolog.Nop()))
	r.GET("/contests/1", OptionalSession(sessions), func(c *gin.Context) {
		sawAuthenticated = actorFrom(c).Authenticated
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/contests/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sawAuthenticated)
}
