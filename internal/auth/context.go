package auth

import (
	"context"

	"github.com/aijobhunter/jobhunter/internal/model"
)

type contextKey struct{}

type AuthContext struct {
	User      *model.User
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	if !ok || ac.User == nil {
		return AuthContext{}, false
	}
	return ac, true
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.User
}

func UserID(ctx context.Context) int64 {
	u := UserFromContext(ctx)
	if u == nil {
		return 0
	}
	return u.ID
}

func IsPro(ctx context.Context) bool {
	u := UserFromContext(ctx)
	return u != nil && u.Tier == model.TierPro
}
