package handlers

import (
	"context"

	"github.com/iudanet/shopapp/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

// UserKey ключ для аутентифицированного пользователя в контексте
const UserKey contextKey = "user"

// WithUser кладет пользователя в контекст (используется AuthMiddleware)
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext возвращает пользователя, установленного AuthMiddleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}
