package repository

import (
	"context"
	"errors"

	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNoActiveTenant: запись через scoped-метод без области магазина.
	ErrNoActiveTenant = errors.New("no active tenant scope")
	ErrDuplicate      = errors.New("duplicate key")
	// ErrReferenced: нарушен внешний ключ (ссылка на несуществующую строку или удаление используемой).
	ErrReferenced     = errors.New("foreign key violation")
	ErrCheckViolation = errors.New("check constraint violation")
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// requireScope для записей: без области писать нельзя.
func requireScope(s tenant.Scope) (uuid.UUID, error) {
	id, ok := s.TenantID()
	if !ok {
		return uuid.Nil, ErrNoActiveTenant
	}
	return id, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrCheckViolation
	}
	// 22003 numeric_value_out_of_range: значение не влезает в колонку
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22003" {
		return ErrCheckViolation
	}
	return err
}

// TxRunner выполняет fn атомарно над набором репозиториев.
type TxRunner func(ctx context.Context, fn func(tx *Repository) error) error

type Repository struct {
	DB         *gorm.DB // nil для in-memory хранилища
	Tenants    TenantRepo
	Users      UserRepo
	Products   ProductRepo
	Orders     OrderRepo
	OrderItems OrderItemRepo

	tx TxRunner
}

// Assemble собирает Repository из готовых реализаций (например, in-memory).
func Assemble(tenants TenantRepo, users UserRepo, products ProductRepo, orders OrderRepo, items OrderItemRepo, tx TxRunner) *Repository {
	return &Repository{
		Tenants:    tenants,
		Users:      users,
		Products:   products,
		Orders:     orders,
		OrderItems: items,
		tx:         tx,
	}
}

func buildRepository(db *gorm.DB) *Repository {
	r := &Repository{
		DB:         db,
		Tenants:    NewTenantRepo(db),
		Users:      NewUserRepo(db),
		Products:   NewProductRepo(db),
		Orders:     NewOrderRepo(db),
		OrderItems: NewOrderItemRepo(db),
	}
	r.tx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(buildRepository(tx))
		})
	}
	return r
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// Глобальная транзакция на весь набор репо
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx(ctx, fn)
}
