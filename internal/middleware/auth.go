package middleware

import (
	"context"
	"net/http"
	"strings"

	"logistics/internal/auth"
	"logistics/pkg/logger"
	"logistics/pkg/metrics"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
	roleKey     contextKey = "role"
)

// UserIDFromContext returns the authenticated subject's user id, if any.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// UsernameFromContext returns the authenticated subject's username, if any.
func UsernameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(usernameKey).(string)
	return v
}

// RoleFromContext returns the authenticated subject's role, if any.
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(roleKey).(string)
	return v
}

// Auth verifies the bearer token on every request whose path is not in
// publicPaths, adapted from gateway-svc's AuthInterceptor for this
// single-service surface (validates locally instead of calling a sibling
// auth service).
func Auth(svc *auth.Service, publicPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, err := extractBearerToken(r)
			if err != nil {
				metrics.Get().RecordHTTPRequest(r.Method, r.URL.Path, "401", 0)
				writeUnauthorized(w, err.Error())
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				logger.Log.Warn("token validation failed", "error", err)
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			ctx = context.WithValue(ctx, roleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoAuthHeader
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", errNoAuthHeader
	}
	return token, nil
}

var errNoAuthHeader = &authHeaderError{"missing or malformed authorization header"}

type authHeaderError struct{ msg string }

func (e *authHeaderError) Error() string { return e.msg }

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"UNAUTHENTICATED","message":"` + message + `"}`))
}
