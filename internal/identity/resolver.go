// Package identity turns a request credential into a principal and picks the
// tenant scope the request runs in.
package identity

import (
	"context"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type TenantLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type RevocationList interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type Resolver struct {
	tokens  service.TokenProvider
	users   UserLookup
	tenants TenantLookup
	revoked RevocationList // nil: отзыв не проверяется
	log     *zap.Logger
}

func NewResolver(tokens service.TokenProvider, users UserLookup, tenants TenantLookup, revoked RevocationList, log *zap.Logger) *Resolver {
	return &Resolver{tokens: tokens, users: users, tenants: tenants, revoked: revoked, log: log}
}

// Resolve возвращает пользователя или (nil, false) для анонимного запроса.
// Роль и магазин берутся из БД, а не из токена.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*models.User, bool) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, false
	}

	claims, err := r.tokens.ParseAndValidateAccess(ctx, credential)
	if err != nil {
		r.log.Debug("token rejected", zap.Error(err))
		return nil, false
	}

	if r.revoked != nil && claims.TokenID != "" {
		revoked, err := r.revoked.IsTokenBlacklisted(ctx, claims.TokenID)
		if err != nil {
			// без redis токен не считаем отозванным
			r.log.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			r.log.Debug("token revoked", zap.String("jti", claims.TokenID))
			return nil, false
		}
	}

	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		r.log.Warn("principal lookup failed", zap.Stringer("user_id", claims.UserID), zap.Error(err))
		return nil, false
	}
	if u == nil {
		r.log.Debug("token for deleted user", zap.Stringer("user_id", claims.UserID))
		return nil, false
	}
	return u, true
}

// ScopeFor: OWNER/STAFF всегда в своём магазине; остальные выбирают магазин
// заголовком, затем query-параметром. Несуществующий магазин игнорируется.
func (r *Resolver) ScopeFor(ctx context.Context, principal *models.User, header, query string) tenant.Scope {
	if principal != nil && principal.Role.TenantBound() {
		return tenant.ForPtr(principal.TenantID)
	}
	for _, raw := range []string{header, query} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if sc := r.existing(ctx, raw); sc.Active() {
			return sc
		}
	}
	return tenant.None()
}

func (r *Resolver) existing(ctx context.Context, raw string) tenant.Scope {
	id, err := uuid.Parse(raw)
	if err != nil {
		r.log.Debug("malformed tenant id", zap.String("tenant", raw))
		return tenant.None()
	}
	t, err := r.tenants.GetByID(ctx, id)
	if err != nil {
		r.log.Warn("tenant lookup failed", zap.Stringer("tenant_id", id), zap.Error(err))
		return tenant.None()
	}
	if t == nil {
		return tenant.None()
	}
	return tenant.For(t.ID)
}
