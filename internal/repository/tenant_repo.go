package repository

import (
	"context"
	"errors"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepo interface {
	Create(ctx context.Context, t *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]models.Tenant, int64, error)
	// Delete каскадно удаляет товары, заказы и сотрудников магазина.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type tenantRepo struct{ db *gorm.DB }

func NewTenantRepo(db *gorm.DB) TenantRepo { return &tenantRepo{db: db} }

func (r *tenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).Where("lower(subdomain) = lower(?)", subdomain).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]models.Tenant, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Tenant{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = NormalizePage(limit, offset)

	var list []models.Tenant
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id)
	return tx.RowsAffected > 0, translate(tx.Error)
}
