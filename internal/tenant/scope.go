// Package tenant holds the per-request tenant scope.
//
// A Scope is a plain value. It is attached to the request context by the
// transport layer and handed explicitly to every tenant-scoped repository
// call, so there is no process-wide "current tenant".
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type Scope struct {
	id     uuid.UUID
	active bool
}

// For returns a scope bound to id. uuid.Nil yields an inactive scope.
func For(id uuid.UUID) Scope {
	if id == uuid.Nil {
		return Scope{}
	}
	return Scope{id: id, active: true}
}

func ForPtr(id *uuid.UUID) Scope {
	if id == nil {
		return Scope{}
	}
	return For(*id)
}

func None() Scope { return Scope{} }

func (s Scope) TenantID() (uuid.UUID, bool) { return s.id, s.active }

func (s Scope) Active() bool { return s.active }

func (s Scope) String() string {
	if !s.active {
		return "none"
	}
	return s.id.String()
}

type ctxKey struct{}

// WithScope возвращает дочерний контекст с областью магазина.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext отдаёт None, если область не устанавливалась.
func FromContext(ctx context.Context) Scope {
	if ctx == nil {
		return None()
	}
	s, _ := ctx.Value(ctxKey{}).(Scope)
	return s
}
