// Package httpapi wires Contestlet's HTTP surface (SPEC_FULL.md §6.1)
// on top of gin, reimplementing the teacher's internal/http/fiber_app.go
// route-group/middleware wiring shape on the go.mod-declared Gin stack,
// and generalizing internal/common/middleware/error_handler.go's
// request-id + panic-recovery + status-code-mapping envelope from the
// teacher's errors.AppError taxonomy to internal/apperrors.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/authz"
	"github.com/open-builders/contestlet/internal/session"
)

const (
	ctxKeyRequestID = "request_id"
	ctxKeyActor     = "actor"
)

// RequestID stamps every request with an X-Request-ID, generating one
// when the caller didn't supply it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// ErrorHandler recovers panics as apperrors.KindInternal and translates
// any error stashed on the gin context (via c.Error) into the JSON
// envelope SPEC_FULL.md §7 describes.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get(ctxKeyRequestID)
				logger.Error().Interface("panic", r).Str("request_id", fmtStr(requestID)).Msg("httpapi: panic recovered")
				writeError(c, apperrors.Internal("internal server error", nil))
				c.Abort()
			}
		}()
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		ae, ok := apperrors.As(err)
		if !ok {
			ae = apperrors.Internal("unexpected error", err)
		}
		if ae.Kind == apperrors.KindInternal || ae.Kind == apperrors.KindDependencyUnavailable {
			logger.Error().Err(err).Msg("httpapi: request failed")
		}
		writeError(c, ae)
	}
}

func writeError(c *gin.Context, ae *apperrors.AppError) {
	requestID, _ := c.Get(ctxKeyRequestID)
	ae = ae.WithRequestID(fmtStr(requestID))

	body := gin.H{
		"error": gin.H{
			"kind":    ae.Kind,
			"message": ae.Message,
		},
		"request_id": ae.RequestID,
	}
	if len(ae.Fields) > 0 {
		body["error"].(gin.H)["fields"] = ae.Fields
	}
	if ae.RetryAfterSeconds > 0 {
		body["error"].(gin.H)["retry_after_seconds"] = ae.RetryAfterSeconds
		c.Header("Retry-After", strconv.Itoa(ae.RetryAfterSeconds))
	}
	c.JSON(statusFor(ae.Kind), body)
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RequireSession parses the Authorization bearer token, verifies it as
// an access token, and stashes an authz.Actor on the context. Routes
// that allow anonymous access should not mount this middleware and
// should call actorFrom(c) themselves, which degrades gracefully to the
// zero-value (unauthenticated) Actor.
func RequireSession(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			_ = c.Error(apperrors.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}
		claims, err := sessions.Verify(token, session.TypeAccess)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(ctxKeyActor, authz.Actor{Authenticated: true, UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// OptionalSession behaves like RequireSession but never aborts; routes
// that are publicly readable but behave differently for an
// authenticated caller (e.g. contest detail visibility) use this.
func OptionalSession(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := sessions.Verify(token, session.TypeAccess)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ctxKeyActor, authz.Actor{Authenticated: true, UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) authz.Actor {
	v, ok := c.Get(ctxKeyActor)
	if !ok {
		return authz.Actor{}
	}
	actor, _ := v.(authz.Actor)
	return actor
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

func fmtStr(v interface{}) string {
	s, _ := v.(string)
	return s
}
