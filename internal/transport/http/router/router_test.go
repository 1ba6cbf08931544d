package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-service/internal/identity"
	"marketplace-service/internal/repository/memory"
	"marketplace-service/internal/service"
	"marketplace-service/internal/token"
	"marketplace-service/internal/transport/http/dto"
	"marketplace-service/internal/transport/http/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Compare(h, p string) bool     { return h == "h:"+p }

type api struct {
	t *testing.T
	h http.Handler
}

func newAPI(t *testing.T, health func(ctx context.Context) error) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	repo := memory.New().Repository()
	tokens := token.NewHSProvider("test-secret", "marketplace", "marketplace-api")
	svc := router.Services{
		Auth:    service.NewAuthService(repo, plainHasher{}, tokens, nil, time.Hour, service.LoginThrottle{}, log),
		Tenants: service.NewTenantService(repo, plainHasher{}, log),
		Catalog: service.NewCatalogService(repo, log),
		Orders:  service.NewOrderService(repo, nil, log),
	}
	resolver := identity.NewResolver(tokens, repo.Users, repo.Tenants, nil, log)
	return &api{t: t, h: router.Router(svc, resolver, router.Options{Health: health}, log)}
}

func (a *api) do(method, path, tok string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

// signup регистрирует и логинит пользователя, возвращает access token.
func (a *api) signup(username string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "secret1",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: username, Password: "secret1"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[dto.LoginResponse](a.t, w).AccessToken
}

// openShop создаёт магазин с одним товаром от имени нового владельца.
func (a *api) openShop(owner, sub, product, price string, stock int) (tok, tenantID, productID string) {
	a.t.Helper()
	tok = a.signup(owner)

	w := a.do(http.MethodPost, "/api/v1/tenants", tok, dto.CreateTenantRequest{Name: sub, Subdomain: sub})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	tenantID = decode[dto.TenantResponse](a.t, w).ID

	w = a.do(http.MethodPost, "/api/v1/products", tok, map[string]any{
		"name": product, "price": price, "stock": stock,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[dto.ProductResponse](a.t, w)
	require.Equal(a.t, tenantID, p.TenantID)
	return tok, tenantID, p.ID
}

func TestMarketplaceFlow(t *testing.T) {
	a := newAPI(t, nil)

	aliceTok, shopA, widget := a.openShop("alice", "shop-a", "Widget", "10.00", 5)
	bobTok, shopB, gadget := a.openShop("bob", "shop-b", "Gadget", "5.00", 10)
	carolTok := a.signup("carol")

	// корзина из двух магазинов
	w := a.do(http.MethodPost, "/api/v1/orders", carolTok, dto.PlaceOrderRequest{Items: []dto.CartLineRequest{
		{ProductID: widget, Quantity: 2},
		{ProductID: gadget, Quantity: 3},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[dto.PlaceOrderResponse](t, w)
	require.Len(t, placed.Orders, 2)
	assert.Equal(t, shopA, placed.Orders[0].TenantID)
	assert.Equal(t, "20.00", placed.Orders[0].TotalAmount)
	assert.Equal(t, shopB, placed.Orders[1].TenantID)
	assert.Equal(t, "15.00", placed.Orders[1].TotalAmount)
	orderA, orderB := placed.Orders[0].ID, placed.Orders[1].ID

	w = a.do(http.MethodGet, "/api/v1/products/"+widget, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[dto.ProductResponse](t, w).Stock)

	// нехватка остатка
	w = a.do(http.MethodPost, "/api/v1/orders", carolTok, dto.PlaceOrderRequest{Items: []dto.CartLineRequest{
		{ProductID: gadget, Quantity: 1},
		{ProductID: widget, Quantity: 100},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "insufficient_stock", decode[dto.BaseError](t, w).Code)

	w = a.do(http.MethodGet, "/api/v1/products/"+gadget, "", nil)
	assert.Equal(t, 7, decode[dto.ProductResponse](t, w).Stock)

	// владелец видит только заказы своего магазина
	w = a.do(http.MethodGet, "/api/v1/orders", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.OrderListResponse](t, w)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, orderA, list.Items[0].ID)

	w = a.do(http.MethodGet, "/api/v1/orders", carolTok, nil)
	assert.Equal(t, int64(2), decode[dto.OrderListResponse](t, w).Total)

	w = a.do(http.MethodGet, "/api/v1/orders/"+orderA, bobTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/v1/orders/"+orderB, carolTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// смена статуса
	w = a.do(http.MethodPatch, "/api/v1/orders/"+orderA+"/status", carolTok, dto.UpdateOrderStatusRequest{Status: "PAID"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/orders/"+orderA+"/status", aliceTok, dto.UpdateOrderStatusRequest{Status: "PAID"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PAID", decode[dto.OrderResponse](t, w).Status)

	w = a.do(http.MethodPatch, "/api/v1/orders/"+orderA+"/status", aliceTok, dto.UpdateOrderStatusRequest{Status: "PENDING"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/orders/"+orderA+"/status", aliceTok, dto.UpdateOrderStatusRequest{Status: "LOST"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// чужой товар не виден для изменения
	w = a.do(http.MethodDelete, "/api/v1/products/"+gadget, aliceTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTenantScopeSelection(t *testing.T) {
	a := newAPI(t, nil)
	_, _, _ = a.openShop("alice", "shop-a", "Widget", "10.00", 5)
	_, shopB, _ := a.openShop("bob", "shop-b", "Gadget", "5.00", 10)

	w := a.do(http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[dto.ProductListResponse](t, w).Total)

	w = a.do(http.MethodGet, "/api/v1/products", "", nil, "X-Tenant-ID", shopB)
	list := decode[dto.ProductListResponse](t, w)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "Gadget", list.Items[0].Name)

	w = a.do(http.MethodGet, "/api/v1/products?tenant="+shopB, "", nil)
	assert.Equal(t, int64(1), decode[dto.ProductListResponse](t, w).Total)

	// мусорный заголовок игнорируется, работает query
	w = a.do(http.MethodGet, "/api/v1/products?tenant="+shopB, "", nil, "X-Tenant-ID", "not-a-uuid")
	assert.Equal(t, int64(1), decode[dto.ProductListResponse](t, w).Total)
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.signup("alice")

	w := a.do(http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserResponse](t, w)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "CUSTOMER", me.Role)
	assert.Nil(t, me.TenantID)

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "alice", Password: "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[dto.BaseError](t, w).Fields)

	// покупатель не может создавать товары
	w = a.do(http.MethodPost, "/api/v1/products", tok, map[string]any{"name": "x", "price": "1.00", "stock": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/products/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/v1/products?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	w := newAPI(t, nil).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newAPI(t, func(ctx context.Context) error { return errors.New("db down") })
	w = down.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
