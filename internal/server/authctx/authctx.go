package authctx

import (
	"context"

	"tillpos-backend/internal/domain"
)

type contextKey string

const userContextKey contextKey = "currentUser"

type CurrentUser struct {
	ID       string
	Username string
	Role     domain.UserRole
}

// CanManage reports whether the user may act on other users' shifts and
// stock.
func (u CurrentUser) CanManage() bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleManager
}

func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func FromContext(ctx context.Context) *CurrentUser {
	val, ok := ctx.Value(userContextKey).(CurrentUser)
	if !ok {
		return nil
	}
	return &val
}
