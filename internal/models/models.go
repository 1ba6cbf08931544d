package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Пределы колонок: stock int4, денежные суммы numeric(10,2).
const MaxStock = math.MaxInt32

var MaxAmount = decimal.RequireFromString("99999999.99")

// Role закрытый набор ролей, CHECK в миграции.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// TenantBound роли, которые обязаны быть привязаны к магазину.
func (r Role) TenantBound() bool {
	switch r {
	case RoleOwner, RoleStaff:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Subdomain string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_tenants_subdomain"`
	DomainURL *string   `gorm:"type:text"`
	Logo      *string   `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (Tenant) TableName() string { return "tenants" }

type User struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username string     `gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username"`
	Email    string     `gorm:"type:varchar(255);not null"` // UNIQUE(lower(email)) в миграции
	Password string     `gorm:"type:text;not null"`
	Role     Role       `gorm:"type:text;not null;default:'CUSTOMER'"`
	TenantID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (User) TableName() string { return "users" }

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text;not null;default:''"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Stock       int             `gorm:"type:int;not null;default:0"`
	Category    *string         `gorm:"type:varchar(100)"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string { return "products" }

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo допустимые переходы:
// PENDING -> PAID | CANCELLED, PAID -> SHIPPED | CANCELLED, SHIPPED -> COMPLETED.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	case OrderStatusPaid:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusCompleted
	case OrderStatusCompleted, OrderStatusCancelled:
		return false
	}
	return false
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status      OrderStatus     `gorm:"type:text;not null;default:'PENDING';index"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Line      int             `gorm:"type:int;not null"` // позиция в корзине, с 1
	Quantity  int             `gorm:"type:int;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null"` // снимок цены на момент заказа

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal quantity * price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
