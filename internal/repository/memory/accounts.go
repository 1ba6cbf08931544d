package memory

import (
	"context"
	"sort"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"

	"github.com/google/uuid"
)

type tenantRepo struct{ v *view }

func (r *tenantRepo) Create(_ context.Context, t *models.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	defer r.v.lock()()
	st := r.v.state()
	if _, ok := st.tenants[t.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, ex := range st.tenants {
		if strings.EqualFold(ex.Subdomain, t.Subdomain) {
			return repository.ErrDuplicate
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.v.now()
	}
	st.tenants[t.ID] = *t
	return nil
}

func (r *tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	defer r.v.lock()()
	t, ok := r.v.state().tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *tenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	defer r.v.lock()()
	for _, t := range r.v.state().tenants {
		if strings.EqualFold(t.Subdomain, subdomain) {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *tenantRepo) List(_ context.Context, limit, offset int) ([]models.Tenant, int64, error) {
	defer r.v.lock()()
	all := make([]models.Tenant, 0, len(r.v.state().tenants))
	for _, t := range r.v.state().tenants {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return newer(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})
	return page(all, limit, offset), int64(len(all)), nil
}

// Delete повторяет ON DELETE CASCADE из миграции.
func (r *tenantRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	defer r.v.lock()()
	st := r.v.state()
	if _, ok := st.tenants[id]; !ok {
		return false, nil
	}

	goneUsers := map[uuid.UUID]bool{}
	for uid, u := range st.users {
		if u.TenantID != nil && *u.TenantID == id {
			goneUsers[uid] = true
		}
	}
	goneOrders := map[uuid.UUID]bool{}
	for oid, o := range st.orders {
		if o.TenantID == id || goneUsers[o.CustomerID] {
			goneOrders[oid] = true
		}
	}
	// позиции уцелевших заказов не должны ссылаться на удаляемые товары
	for oid, items := range st.items {
		if goneOrders[oid] {
			continue
		}
		for _, it := range items {
			if p, ok := st.products[it.ProductID]; ok && p.TenantID == id {
				return false, repository.ErrReferenced
			}
		}
	}

	for uid := range goneUsers {
		delete(st.users, uid)
	}
	for oid := range goneOrders {
		delete(st.orders, oid)
		delete(st.items, oid)
	}
	for pid, p := range st.products {
		if p.TenantID == id {
			delete(st.products, pid)
		}
	}
	delete(st.tenants, id)
	return true, nil
}

type userRepo struct{ v *view }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	if !u.Role.Valid() || u.Role.TenantBound() != (u.TenantID != nil) {
		return repository.ErrCheckViolation
	}

	defer r.v.lock()()
	st := r.v.state()
	for _, ex := range st.users {
		if ex.ID == u.ID || ex.Username == u.Username || strings.EqualFold(ex.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	if u.TenantID != nil {
		if _, ok := st.tenants[*u.TenantID]; !ok {
			return repository.ErrReferenced
		}
	}
	now := r.v.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	st.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	defer r.v.lock()()
	u, ok := r.v.state().users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	defer r.v.lock()()
	for _, u := range r.v.state().users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	defer r.v.lock()()
	for _, u := range r.v.state().users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) PromoteToOwner(_ context.Context, userID, tenantID uuid.UUID) (bool, error) {
	defer r.v.lock()()
	st := r.v.state()
	u, ok := st.users[userID]
	if !ok || u.TenantID != nil {
		return false, nil
	}
	if _, ok := st.tenants[tenantID]; !ok {
		return false, repository.ErrReferenced
	}
	tid := tenantID
	u.Role = models.RoleOwner
	u.TenantID = &tid
	u.UpdatedAt = r.v.now()
	st.users[userID] = u
	return true, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	defer r.v.lock()()
	st := r.v.state()
	u, ok := st.users[userID]
	if !ok {
		return nil
	}
	u.Password = hash
	u.UpdatedAt = r.v.now()
	st.users[userID] = u
	return nil
}
