package session

import (
	"context"

	"github.com/streamloft/gateway/internal/models"
)

type ctxKey struct{}

// WithUser attaches a resolved identity to the request context. The resolver
// only does this after the session credential validated upstream during the
// same request.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the identity attached to the request, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}
