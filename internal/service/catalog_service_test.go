package service_test

import (
	"context"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateProduct_Permissions(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	tB := f.seedTenant(t, "shop-b")
	owner := f.seedOwner(t, "owner", tA)
	staff := f.seedUser(t, "clerk", models.RoleStaff, &tA)
	customer := f.seedUser(t, "alice", models.RoleCustomer, nil)

	in := service.ProductInput{Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5}

	p, err := f.catalog.CreateProduct(as(owner), in)
	require.NoError(t, err)
	assert.Equal(t, tA, p.TenantID)

	// заголовок магазина не переопределяет магазин сотрудника
	p, err = f.catalog.CreateProduct(inTenant(as(staff), tB), in)
	require.NoError(t, err)
	assert.Equal(t, tA, p.TenantID)

	foreign := in
	foreign.TenantID = &tB
	_, err = f.catalog.CreateProduct(as(owner), foreign)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.catalog.CreateProduct(inTenant(as(customer), tA), in)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.catalog.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	owner := f.seedOwner(t, "owner", tA)

	tests := []struct {
		name string
		in   service.ProductInput
	}{
		{"empty name", service.ProductInput{Name: "  ", Price: decimal.NewFromInt(1)}},
		{"negative price", service.ProductInput{Name: "x", Price: decimal.NewFromInt(-1)}},
		{"three decimals", service.ProductInput{Name: "x", Price: decimal.RequireFromString("1.005")}},
		{"too expensive", service.ProductInput{Name: "x", Price: decimal.RequireFromString("100000000")}},
		{"negative stock", service.ProductInput{Name: "x", Price: decimal.NewFromInt(1), Stock: -1}},
		{"stock above int4", service.ProductInput{Name: "x", Price: decimal.NewFromInt(1), Stock: models.MaxStock + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateProduct(as(owner), tt.in)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestListProducts_ScopedAndGlobal(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	tB := f.seedTenant(t, "shop-b")
	owner := f.seedOwner(t, "owner", tA)

	_, err := f.catalog.CreateProduct(as(owner), service.ProductInput{Name: "Book", Price: decimal.NewFromInt(5), Category: strPtr("books")})
	require.NoError(t, err)
	f.seedProduct(t, tA, "Pen", "1.50", 10)
	f.seedProduct(t, tB, "Lamp", "20.00", 2)

	_, total, err := f.catalog.ListProducts(context.Background(), service.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	list, total, err := f.catalog.ListProducts(inTenant(context.Background(), tB), service.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Lamp", list[0].Name)

	// владелец видит только свой магазин
	_, total, err = f.catalog.ListProducts(as(owner), service.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, total, err = f.catalog.ListProducts(context.Background(), service.ProductFilter{Category: strPtr("books")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Book", list[0].Name)

	list, _, err = f.catalog.ListProducts(context.Background(), service.ProductFilter{Query: "lam"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lamp", list[0].Name)
}

func TestGetProduct_Scoping(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	tB := f.seedTenant(t, "shop-b")
	lamp := f.seedProduct(t, tB, "Lamp", "20.00", 2)

	_, err := f.catalog.GetProduct(context.Background(), lamp.ID)
	require.NoError(t, err)

	_, err = f.catalog.GetProduct(inTenant(context.Background(), tA), lamp.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.catalog.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateDeleteProduct_CrossTenantIsNotFound(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	tB := f.seedTenant(t, "shop-b")
	ownerA := f.seedOwner(t, "owner-a", tA)
	lamp := f.seedProduct(t, tB, "Lamp", "20.00", 2)

	price := decimal.RequireFromString("25.00")
	_, err := f.catalog.UpdateProduct(as(ownerA), lamp.ID, repository.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = f.catalog.DeleteProduct(as(ownerA), lamp.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := f.catalog.GetProduct(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.Price.StringFixed(2))
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	staff := f.seedUser(t, "clerk", models.RoleStaff, &tA)
	customer := f.seedUser(t, "alice", models.RoleCustomer, nil)
	pen := f.seedProduct(t, tA, "Pen", "1.50", 10)

	name := "  Fountain Pen "
	stock := 3
	p, err := f.catalog.UpdateProduct(as(staff), pen.ID, repository.ProductPatch{Name: &name, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Fountain Pen", p.Name)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "1.50", p.Price.StringFixed(2))

	negative := -1
	_, err = f.catalog.UpdateProduct(as(staff), pen.ID, repository.ProductPatch{Stock: &negative})
	assert.ErrorIs(t, err, service.ErrValidation)

	huge := models.MaxStock + 1
	_, err = f.catalog.UpdateProduct(as(staff), pen.ID, repository.ProductPatch{Stock: &huge})
	assert.ErrorIs(t, err, service.ErrValidation)

	maxStock := models.MaxStock
	p, err = f.catalog.UpdateProduct(as(staff), pen.ID, repository.ProductPatch{Stock: &maxStock})
	require.NoError(t, err)
	assert.Equal(t, models.MaxStock, p.Stock)

	_, err = f.catalog.UpdateProduct(inTenant(as(customer), tA), pen.ID, repository.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.catalog.UpdateProduct(as(customer), pen.ID, repository.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	tA := f.seedTenant(t, "shop-a")
	owner := f.seedOwner(t, "owner", tA)
	customer := f.seedUser(t, "alice", models.RoleCustomer, nil)
	pen := f.seedProduct(t, tA, "Pen", "1.50", 10)
	lamp := f.seedProduct(t, tA, "Lamp", "20.00", 2)

	_, err := f.orders.PlaceOrder(as(customer), []service.CartLine{{ProductID: lamp.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteProduct(as(owner), pen.ID))
	_, err = f.catalog.GetProduct(context.Background(), pen.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// товар с историей заказов удалить нельзя
	err = f.catalog.DeleteProduct(as(owner), lamp.ID)
	assert.ErrorIs(t, err, service.ErrValidation)

	err = f.catalog.DeleteProduct(context.Background(), lamp.ID)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}
