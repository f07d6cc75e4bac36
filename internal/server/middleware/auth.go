package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/handlers"
	"github.com/iudanet/shopapp/internal/server/session"
)

// Authenticator resolves the owner of an access token
type Authenticator interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Пользователь из токена кладется в контекст запроса.
func AuthMiddleware(logger *slog.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if r.Header.Get("Authorization") == "" {
				logger.WarnContext(ctx, "missing Authorization header")
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			user, err := auth.UserFromToken(ctx, token)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrExpired):
					writeError(w, "token expired", http.StatusUnauthorized)
				case errors.Is(err, session.ErrInvalidSignature), errors.Is(err, session.ErrNotFound):
					writeError(w, "invalid token", http.StatusUnauthorized)
				default:
					logger.ErrorContext(ctx, "failed to authenticate", slog.Any("error", err))
					writeError(w, "internal server error", http.StatusInternalServerError)
					return
				}
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.Int64("user_id", user.ID))

			next.ServeHTTP(w, r.WithContext(handlers.WithUser(ctx, user)))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Должен стоять после AuthMiddleware.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := handlers.UserFromContext(r.Context())
			if !ok {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !allowed[user.Role.Name] {
				logger.WarnContext(r.Context(), "access denied",
					slog.Int64("user_id", user.ID),
					slog.String("role", user.Role.Name))
				writeError(w, "access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
