package repository

import (
	"context"
	"errors"

	"marketplace-service/internal/models"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderListFilter struct {
	CustomerID *uuid.UUID
	Status     *models.OrderStatus
	Limit      int
	Offset     int
}

type OrderRepo interface {
	ListScoped(ctx context.Context, s tenant.Scope, f OrderListFilter) ([]models.Order, int64, error)
	GetScoped(ctx context.Context, s tenant.Scope, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, s tenant.Scope, o *models.Order) error
	// UpdateStatus меняет статус только если текущий равен from.
	UpdateStatus(ctx context.Context, s tenant.Scope, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	Delete(ctx context.Context, s tenant.Scope, id uuid.UUID) (bool, error)

	ListAll(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error)
	GetAny(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("line ASC")
}

func (r *orderRepo) list(ctx context.Context, tenantID *uuid.UUID, f OrderListFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})

	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := NormalizePage(f.Limit, f.Offset)

	var list []models.Order
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Preload("Items", preloadItems).Find(&list).Error
	return list, total, err
}

func (r *orderRepo) ListScoped(ctx context.Context, s tenant.Scope, f OrderListFilter) ([]models.Order, int64, error) {
	tid, ok := s.TenantID()
	if !ok {
		return []models.Order{}, 0, nil
	}
	return r.list(ctx, &tid, f)
}

func (r *orderRepo) ListAll(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error) {
	return r.list(ctx, nil, f)
}

func (r *orderRepo) GetScoped(ctx context.Context, s tenant.Scope, id uuid.UUID) (*models.Order, error) {
	tid, ok := s.TenantID()
	if !ok {
		return nil, nil
	}
	var ord models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&ord, "id = ? AND tenant_id = ?", id, tid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *orderRepo) GetAny(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

// Create не сохраняет Items, позиции пишет OrderItemRepo.BulkCreate.
func (r *orderRepo) Create(ctx context.Context, s tenant.Scope, o *models.Order) error {
	tid, err := requireScope(s)
	if err != nil {
		return err
	}
	if o.TenantID == uuid.Nil {
		o.TenantID = tid
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, s tenant.Scope, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	tid, err := requireScope(s)
	if err != nil {
		return false, err
	}
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tid, from).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) Delete(ctx context.Context, s tenant.Scope, id uuid.UUID) (bool, error) {
	tid, err := requireScope(s)
	if err != nil {
		return false, err
	}
	tx := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ? AND tenant_id = ?", id, tid)
	return tx.RowsAffected > 0, translate(tx.Error)
}
