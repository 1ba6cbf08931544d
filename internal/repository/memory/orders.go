package memory

import (
	"context"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderRepo struct{ v *view }

func (r *orderRepo) withItems(st *state, o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, st.items[o.ID]...)
	return o
}

func (r *orderRepo) list(tenantID *uuid.UUID, f repository.OrderListFilter) ([]models.Order, int64) {
	st := r.v.state()

	all := make([]models.Order, 0)
	for _, o := range st.orders {
		if tenantID != nil && o.TenantID != *tenantID {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		all = append(all, o)
	}
	sortOrders(all)

	out := page(all, f.Limit, f.Offset)
	res := make([]models.Order, len(out))
	for i, o := range out {
		res[i] = r.withItems(st, o)
	}
	return res, int64(len(all))
}

func (r *orderRepo) ListScoped(_ context.Context, s tenant.Scope, f repository.OrderListFilter) ([]models.Order, int64, error) {
	tid, ok := s.TenantID()
	if !ok {
		return []models.Order{}, 0, nil
	}
	defer r.v.lock()()
	list, total := r.list(&tid, f)
	return list, total, nil
}

func (r *orderRepo) ListAll(_ context.Context, f repository.OrderListFilter) ([]models.Order, int64, error) {
	defer r.v.lock()()
	list, total := r.list(nil, f)
	return list, total, nil
}

func (r *orderRepo) GetScoped(_ context.Context, s tenant.Scope, id uuid.UUID) (*models.Order, error) {
	tid, ok := s.TenantID()
	if !ok {
		return nil, nil
	}
	defer r.v.lock()()
	st := r.v.state()
	o, found := st.orders[id]
	if !found || o.TenantID != tid {
		return nil, nil
	}
	o = r.withItems(st, o)
	return &o, nil
}

func (r *orderRepo) GetAny(_ context.Context, id uuid.UUID) (*models.Order, error) {
	defer r.v.lock()()
	st := r.v.state()
	o, found := st.orders[id]
	if !found {
		return nil, nil
	}
	o = r.withItems(st, o)
	return &o, nil
}

func (r *orderRepo) Create(_ context.Context, s tenant.Scope, o *models.Order) error {
	tid, ok := s.TenantID()
	if !ok {
		return repository.ErrNoActiveTenant
	}
	if o.TenantID == uuid.Nil {
		o.TenantID = tid
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if !o.Status.Valid() || o.TotalAmount.IsNegative() || o.TotalAmount.GreaterThan(models.MaxAmount) {
		return repository.ErrCheckViolation
	}

	defer r.v.lock()()
	st := r.v.state()
	if _, ok := st.tenants[o.TenantID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := st.users[o.CustomerID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := st.orders[o.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.v.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.TotalAmount = o.TotalAmount.Round(2)

	stored := *o
	stored.Items = nil
	st.orders[o.ID] = stored
	return nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, s tenant.Scope, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	tid, ok := s.TenantID()
	if !ok {
		return false, repository.ErrNoActiveTenant
	}
	if !to.Valid() {
		return false, repository.ErrCheckViolation
	}

	defer r.v.lock()()
	st := r.v.state()
	o, found := st.orders[id]
	if !found || o.TenantID != tid || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = r.v.now()
	st.orders[id] = o
	return true, nil
}

func (r *orderRepo) Delete(_ context.Context, s tenant.Scope, id uuid.UUID) (bool, error) {
	tid, ok := s.TenantID()
	if !ok {
		return false, repository.ErrNoActiveTenant
	}

	defer r.v.lock()()
	st := r.v.state()
	o, found := st.orders[id]
	if !found || o.TenantID != tid {
		return false, nil
	}
	delete(st.orders, id)
	delete(st.items, id)
	return true, nil
}

type orderItemRepo struct{ v *view }

func (r *orderItemRepo) BulkCreate(_ context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	defer r.v.lock()()
	st := r.v.state()
	now := r.v.now()

	// проверяем всё до первой записи, как один INSERT
	for i := range items {
		it := &items[i]
		if it.Quantity <= 0 || it.Price.IsNegative() || it.Price.GreaterThan(models.MaxAmount) {
			return repository.ErrCheckViolation
		}
		if _, ok := st.orders[it.OrderID]; !ok {
			return repository.ErrReferenced
		}
		if _, ok := st.products[it.ProductID]; !ok {
			return repository.ErrReferenced
		}
	}
	for i := range items {
		it := &items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		it.Price = it.Price.Round(2)
		st.items[it.OrderID] = append(st.items[it.OrderID], *it)
	}
	return nil
}

func (r *orderItemRepo) SumByOrder(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	defer r.v.lock()()
	total := decimal.Zero
	for _, it := range r.v.state().items[orderID] {
		total = total.Add(it.LineTotal())
	}
	return total, nil
}
