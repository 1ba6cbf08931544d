package service

import (
	"context"

	"marketplace-service/internal/models"
	"marketplace-service/internal/tenant"
)

type ctxKey string

const ctxPrincipalKey ctxKey = "principal"

// WithPrincipal кладёт аутентифицированного пользователя в контекст запроса.
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, u)
}

// PrincipalFromContext: nil для анонимного запроса.
func PrincipalFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxPrincipalKey).(*models.User)
	return u
}

func requireAuth(ctx context.Context) (*models.User, error) {
	u := PrincipalFromContext(ctx)
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// scopeFor: сотрудники магазина всегда работают в своём магазине,
// остальные в области, выставленной транспортом.
func scopeFor(ctx context.Context, u *models.User) tenant.Scope {
	if u != nil && u.Role.TenantBound() {
		return tenant.ForPtr(u.TenantID)
	}
	return tenant.FromContext(ctx)
}
