package repository

import (
	"context"
	"errors"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductListFilter struct {
	Category *string
	Query    string // по name
	Limit    int
	Offset   int
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
}

func (p ProductPatch) fields() map[string]any {
	f := map[string]any{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.Price != nil {
		f["price"] = *p.Price
	}
	if p.Stock != nil {
		f["stock"] = *p.Stock
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	return f
}

// Apply применяет патч к копии в памяти.
func (p ProductPatch) Apply(dst *models.Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.Category != nil {
		c := *p.Category
		dst.Category = &c
	}
}

func (p ProductPatch) Empty() bool { return len(p.fields()) == 0 }

// ProductRepo: scoped-методы фильтруют по области магазина,
// ListAll/GetAny/GetAnyByIDs видят весь каталог.
type ProductRepo interface {
	ListScoped(ctx context.Context, s tenant.Scope, f ProductListFilter) ([]models.Product, int64, error)
	GetScoped(ctx context.Context, s tenant.Scope, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, s tenant.Scope, p *models.Product) error
	Update(ctx context.Context, s tenant.Scope, id uuid.UUID, patch ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, s tenant.Scope, id uuid.UUID) (bool, error)
	// DeductStock атомарно: stock -= qty, если хватает. Возвращает текущую цену.
	DeductStock(ctx context.Context, s tenant.Scope, id uuid.UUID, qty int) (decimal.Decimal, bool, error)

	ListAll(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	GetAny(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetAnyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) list(ctx context.Context, tenantID *uuid.UUID, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("lower(name) LIKE lower(?)", "%"+s+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := NormalizePage(f.Limit, f.Offset)

	var list []models.Product
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) ListScoped(ctx context.Context, s tenant.Scope, f ProductListFilter) ([]models.Product, int64, error) {
	tid, ok := s.TenantID()
	if !ok {
		return []models.Product{}, 0, nil
	}
	return r.list(ctx, &tid, f)
}

func (r *productRepo) ListAll(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	return r.list(ctx, nil, f)
}

func (r *productRepo) GetScoped(ctx context.Context, s tenant.Scope, id uuid.UUID) (*models.Product, error) {
	tid, ok := s.TenantID()
	if !ok {
		return nil, nil
	}
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ? AND tenant_id = ?", id, tid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetAny(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetAnyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var list []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *productRepo) Create(ctx context.Context, s tenant.Scope, p *models.Product) error {
	tid, err := requireScope(s)
	if err != nil {
		return err
	}
	// явно указанный магазин не перетираем
	if p.TenantID == uuid.Nil {
		p.TenantID = tid
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) Update(ctx context.Context, s tenant.Scope, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	tid, err := requireScope(s)
	if err != nil {
		return nil, err
	}

	fields := patch.fields()
	if len(fields) > 0 {
		tx := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND tenant_id = ?", id, tid).
			Updates(fields)
		if tx.Error != nil {
			return nil, translate(tx.Error)
		}
		if tx.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.GetScoped(ctx, s, id)
}

func (r *productRepo) Delete(ctx context.Context, s tenant.Scope, id uuid.UUID) (bool, error) {
	tid, err := requireScope(s)
	if err != nil {
		return false, err
	}
	tx := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ? AND tenant_id = ?", id, tid)
	return tx.RowsAffected > 0, translate(tx.Error)
}

func (r *productRepo) DeductStock(ctx context.Context, s tenant.Scope, id uuid.UUID, qty int) (decimal.Decimal, bool, error) {
	tid, err := requireScope(s)
	if err != nil {
		return decimal.Zero, false, err
	}

	// проверка остатка повторяется в момент записи, конкурентный заказ не уведёт stock в минус
	var row struct {
		Price decimal.Decimal
	}
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock = stock - @q,
    updated_at = now()
WHERE id = @pid
  AND tenant_id = @tid
  AND stock >= @q
RETURNING price
`, map[string]any{
		"q":   qty,
		"pid": id,
		"tid": tid,
	}).Scan(&row)
	if tx.Error != nil {
		return decimal.Zero, false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return decimal.Zero, false, nil
	}
	return row.Price, true, nil
}
