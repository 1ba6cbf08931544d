package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)

func TestCreateTenant_PromotesCreatorToOwner(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "alice", models.RoleCustomer, nil)

	tn, err := f.tenants.CreateTenant(as(u), service.CreateTenantInput{Name: "Alice Books", Subdomain: "alice-books"})
	require.NoError(t, err)
	assert.Equal(t, "alice-books", tn.Subdomain)

	stored, err := f.repo.Users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, stored.Role)
	require.NotNil(t, stored.TenantID)
	assert.Equal(t, tn.ID, *stored.TenantID)

	// повторная попытка тем же пользователем после перезагрузки профиля
	_, err = f.tenants.CreateTenant(as(stored), service.CreateTenantInput{Name: "Second"})
	assert.ErrorIs(t, err, service.ErrValidation)

	// даже со старым профилем в контексте вторая промоция не проходит
	_, err = f.tenants.CreateTenant(as(u), service.CreateTenantInput{Name: "Third", Subdomain: "third"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, total, err := f.tenants.ListTenants(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCreateTenant_GeneratedSubdomain(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "alice", models.RoleCustomer, nil)

	tn, err := f.tenants.CreateTenant(as(u), service.CreateTenantInput{Name: "  Ёлки & Палки Store  "})
	require.NoError(t, err)
	if !subdomainPattern.MatchString(tn.Subdomain) {
		t.Fatalf("generated subdomain %q does not match pattern", tn.Subdomain)
	}
	assert.Equal(t, "Ёлки & Палки Store", tn.Name)
}

func TestCreateTenant_Errors(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice", models.RoleCustomer, nil)
	bob := f.seedUser(t, "bob", models.RoleCustomer, nil)

	_, err := f.tenants.CreateTenant(context.Background(), service.CreateTenantInput{Name: "x"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.tenants.CreateTenant(as(alice), service.CreateTenantInput{Name: ""})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.tenants.CreateTenant(as(alice), service.CreateTenantInput{Name: "Shop", Subdomain: "Bad_Sub"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.tenants.CreateTenant(as(alice), service.CreateTenantInput{Name: "Shop", Subdomain: "shop"})
	require.NoError(t, err)

	_, err = f.tenants.CreateTenant(as(bob), service.CreateTenantInput{Name: "Shop", Subdomain: "shop"})
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	// откат: bob остаётся покупателем
	stored, err := f.repo.Users.GetByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, stored.Role)
	assert.Nil(t, stored.TenantID)
}

func TestGetTenant(t *testing.T) {
	f := newFixture(t)
	id := f.seedTenant(t, "shop-a")

	tn, err := f.tenants.GetTenant(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "shop-a", tn.Subdomain)

	_, err = f.tenants.GetTenant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAddStaff(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	owner := f.seedOwner(t, "owner", tA)
	customer := f.seedUser(t, "alice", models.RoleCustomer, nil)

	staff, err := f.tenants.AddStaff(as(owner), service.RegisterInput{
		Username: "clerk",
		Email:    "Clerk@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)
	require.NotNil(t, staff.TenantID)
	assert.Equal(t, tA, *staff.TenantID)
	assert.Equal(t, "clerk@example.com", staff.Email)
	assert.Equal(t, "hashed_secret1", staff.Password)

	tests := []struct {
		name    string
		ctx     context.Context
		in      service.RegisterInput
		wantErr error
	}{
		{"anonymous", context.Background(), service.RegisterInput{Username: "x", Email: "x@example.com", Password: "secret1"}, service.ErrUnauthenticated},
		{"customer", as(customer), service.RegisterInput{Username: "x", Email: "x@example.com", Password: "secret1"}, service.ErrPermissionDenied},
		{"staff", as(staff), service.RegisterInput{Username: "x", Email: "x@example.com", Password: "secret1"}, service.ErrPermissionDenied},
		{"duplicate", as(owner), service.RegisterInput{Username: "clerk", Email: "other@example.com", Password: "secret1"}, service.ErrAlreadyExists},
		{"short password", as(owner), service.RegisterInput{Username: "y", Email: "y@example.com", Password: "123"}, service.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tenants.AddStaff(tt.ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddStaff() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
