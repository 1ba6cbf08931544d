package memory

import (
	"context"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRepo struct{ v *view }

func (r *productRepo) list(tenantID *uuid.UUID, f repository.ProductListFilter) ([]models.Product, int64) {
	st := r.v.state()

	all := make([]models.Product, 0, len(st.products))
	q := strings.TrimSpace(f.Query)
	for _, p := range st.products {
		if tenantID != nil && p.TenantID != *tenantID {
			continue
		}
		if f.Category != nil && (p.Category == nil || *p.Category != *f.Category) {
			continue
		}
		if q != "" && !containsFold(p.Name, q) {
			continue
		}
		all = append(all, p)
	}
	sortProducts(all)
	return page(all, f.Limit, f.Offset), int64(len(all))
}

func (r *productRepo) ListScoped(_ context.Context, s tenant.Scope, f repository.ProductListFilter) ([]models.Product, int64, error) {
	tid, ok := s.TenantID()
	if !ok {
		return []models.Product{}, 0, nil
	}
	defer r.v.lock()()
	list, total := r.list(&tid, f)
	return list, total, nil
}

func (r *productRepo) ListAll(_ context.Context, f repository.ProductListFilter) ([]models.Product, int64, error) {
	defer r.v.lock()()
	list, total := r.list(nil, f)
	return list, total, nil
}

func (r *productRepo) GetScoped(_ context.Context, s tenant.Scope, id uuid.UUID) (*models.Product, error) {
	tid, ok := s.TenantID()
	if !ok {
		return nil, nil
	}
	defer r.v.lock()()
	p, found := r.v.state().products[id]
	if !found || p.TenantID != tid {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetAny(_ context.Context, id uuid.UUID) (*models.Product, error) {
	defer r.v.lock()()
	p, found := r.v.state().products[id]
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetAnyByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	defer r.v.lock()()
	st := r.v.state()
	out := make([]models.Product, 0, len(ids))
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := st.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func checkProduct(p *models.Product) error {
	if p.Stock < 0 || p.Stock > models.MaxStock || p.Price.IsNegative() || p.Price.GreaterThan(models.MaxAmount) {
		return repository.ErrCheckViolation
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, s tenant.Scope, p *models.Product) error {
	tid, ok := s.TenantID()
	if !ok {
		return repository.ErrNoActiveTenant
	}
	if p.TenantID == uuid.Nil {
		p.TenantID = tid
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := checkProduct(p); err != nil {
		return err
	}

	defer r.v.lock()()
	st := r.v.state()
	if _, ok := st.tenants[p.TenantID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := st.products[p.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.v.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Price = p.Price.Round(2)
	st.products[p.ID] = *p
	return nil
}

func (r *productRepo) Update(_ context.Context, s tenant.Scope, id uuid.UUID, patch repository.ProductPatch) (*models.Product, error) {
	tid, ok := s.TenantID()
	if !ok {
		return nil, repository.ErrNoActiveTenant
	}

	defer r.v.lock()()
	st := r.v.state()
	p, found := st.products[id]
	if !found || p.TenantID != tid {
		return nil, nil
	}
	if patch.Empty() {
		return &p, nil
	}
	patch.Apply(&p)
	if err := checkProduct(&p); err != nil {
		return nil, err
	}
	p.Price = p.Price.Round(2)
	p.UpdatedAt = r.v.now()
	st.products[id] = p
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, s tenant.Scope, id uuid.UUID) (bool, error) {
	tid, ok := s.TenantID()
	if !ok {
		return false, repository.ErrNoActiveTenant
	}

	defer r.v.lock()()
	st := r.v.state()
	p, found := st.products[id]
	if !found || p.TenantID != tid {
		return false, nil
	}
	for _, items := range st.items {
		for _, it := range items {
			if it.ProductID == id {
				return false, repository.ErrReferenced
			}
		}
	}
	delete(st.products, id)
	return true, nil
}

func (r *productRepo) DeductStock(_ context.Context, s tenant.Scope, id uuid.UUID, qty int) (decimal.Decimal, bool, error) {
	tid, ok := s.TenantID()
	if !ok {
		return decimal.Zero, false, repository.ErrNoActiveTenant
	}

	defer r.v.lock()()
	st := r.v.state()
	p, found := st.products[id]
	if !found || p.TenantID != tid || p.Stock < qty {
		return decimal.Zero, false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = r.v.now()
	st.products[id] = p
	return p.Price, true, nil
}
