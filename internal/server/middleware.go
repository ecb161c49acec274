package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"memoria-client/pkg/api"
	"memoria-client/pkg/auth"
	appErrors "memoria-client/pkg/errors"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	claimsKey contextKey = "claims"
)

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// Authenticate validates the bearer token and stores the subject and
// claims on the request context.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := validator.ValidateToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("rejected request",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				api.Error(w, http.StatusUnauthorized, authMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose claims lack the admin role. Must
// run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			api.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !claims.IsAdmin() {
			api.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing authentication token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	default:
		return "invalid authentication token"
	}
}

// writeError maps application error types onto HTTP statuses and the
// standard envelope.
func writeError(w http.ResponseWriter, err error) {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		api.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case appErrors.ErrorTypeValidation:
		api.Error(w, http.StatusBadRequest, appErr.Message)
	case appErrors.ErrorTypeNotFound:
		api.Error(w, http.StatusNotFound, appErr.Message)
	case appErrors.ErrorTypeConflict:
		api.Error(w, http.StatusConflict, appErr.Message)
	case appErrors.ErrorTypeUnauthorized:
		api.Error(w, http.StatusUnauthorized, appErr.Message)
	default:
		api.Error(w, http.StatusInternalServerError, appErr.Message)
	}
}
