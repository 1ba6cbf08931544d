// Package policy decides whether a principal may perform an action on a
// resource. It is pure: no I/O, no context, only the principal and a
// description of the target.
package policy

import (
	"errors"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
)

type Action int

const (
	ProductRead Action = iota
	ProductCreate
	ProductUpdate
	ProductDelete
	OrderRead
	OrderUpdateStatus
	TenantCreate
	StaffCreate
)

func (a Action) String() string {
	switch a {
	case ProductRead:
		return "product.read"
	case ProductCreate:
		return "product.create"
	case ProductUpdate:
		return "product.update"
	case ProductDelete:
		return "product.delete"
	case OrderRead:
		return "order.read"
	case OrderUpdateStatus:
		return "order.update_status"
	case TenantCreate:
		return "tenant.create"
	case StaffCreate:
		return "staff.create"
	}
	return "unknown"
}

// Resource описывает цель действия. Нулевые поля значат "не задано".
type Resource struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
}

func ProductOf(p *models.Product) Resource { return Resource{TenantID: p.TenantID} }

func OrderOf(o *models.Order) Resource {
	return Resource{TenantID: o.TenantID, CustomerID: o.CustomerID}
}

func TenantRes(id uuid.UUID) Resource { return Resource{TenantID: id} }

// public действия не требуют аутентификации.
func public(a Action) bool { return a == ProductRead }

func CanPerform(p *models.User, a Action, r Resource) bool {
	return Authorize(p, a, r) == nil
}

// Authorize проверяет аутентификацию раньше прав.
func Authorize(p *models.User, a Action, r Resource) error {
	if public(a) {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}

	if allowed(p, a, r) {
		return nil
	}
	return ErrPermissionDenied
}

func sameTenant(p *models.User, tenantID uuid.UUID) bool {
	return p.TenantID != nil && *p.TenantID == tenantID
}

func allowed(p *models.User, a Action, r Resource) bool {
	switch p.Role {
	case models.RoleOwner:
		switch a {
		case ProductCreate:
			// пустой tenant будет проставлен из области запроса
			return r.TenantID == uuid.Nil || sameTenant(p, r.TenantID)
		case ProductUpdate, ProductDelete, OrderRead, OrderUpdateStatus, StaffCreate:
			return sameTenant(p, r.TenantID)
		case TenantCreate, ProductRead:
			return true
		}
		return false

	case models.RoleStaff:
		switch a {
		case ProductCreate:
			return r.TenantID == uuid.Nil || sameTenant(p, r.TenantID)
		case ProductUpdate, ProductDelete, OrderRead, OrderUpdateStatus:
			return sameTenant(p, r.TenantID)
		case TenantCreate, ProductRead:
			return true
		case StaffCreate:
			return false
		}
		return false

	case models.RoleCustomer:
		switch a {
		case OrderRead:
			return r.CustomerID != uuid.Nil && r.CustomerID == p.ID
		case TenantCreate, ProductRead:
			return true
		case ProductCreate, ProductUpdate, ProductDelete, OrderUpdateStatus, StaffCreate:
			return false
		}
		return false
	}

	// неизвестная роль
	return false
}
