package middleware

import (
	"context"
	"errors"
	"net/http"
	"todoTracker/internal/auth"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

const UserIDKey contextKey = "user_id"

type TokenVerifier interface {
	UserIDFromHeader(header string) (string, error)
}

// Auth пропускает запрос дальше только с действительным bearer-токеном
// и кладёт идентификатор пользователя в контекст.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.UserIDFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				logger.Warn("HTTP: Отказ в доступе",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error":   "UNAUTHORIZED",
					"message": unauthorizedMessage(err),
				})
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID кладёт идентификатор в контекст в обход проверки токена
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrMalformedHeader):
		return "No token provided"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	default:
		return "Invalid token"
	}
}
