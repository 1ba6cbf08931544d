package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/repository/memory"
	"marketplace-service/internal/service"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPasswordHasher
type MockPasswordHasher struct{}

func (MockPasswordHasher) Hash(password string) (string, error) { return "hashed_" + password, nil }
func (MockPasswordHasher) Compare(hash, password string) bool   { return hash == "hashed_"+password }

// MockTokenProvider выдаёт непрозрачные токены и помнит их claims.
type MockTokenProvider struct {
	mu     sync.Mutex
	issued map[string]*service.Claims
}

func (m *MockTokenProvider) SignAccess(ctx context.Context, u *models.User, ttl time.Duration) (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.issued == nil {
		m.issued = map[string]*service.Claims{}
	}
	exp := time.Now().Add(ttl)
	tok := "tok-" + uuid.NewString()
	m.issued[tok] = &service.Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		TenantID: u.TenantID,
		TokenID:  strings.TrimPrefix(tok, "tok-"),
		Exp:      exp,
	}
	return tok, exp, nil
}

func (m *MockTokenProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.issued[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// recordingBus запоминает опубликованные события.
type recordingBus struct {
	mu      sync.Mutex
	created []service.OrderCreatedEvent
	changed []service.OrderStatusChangedEvent
	err     error
}

func (b *recordingBus) PublishOrderCreated(ctx context.Context, e service.OrderCreatedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, e)
	return b.err
}

func (b *recordingBus) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changed = append(b.changed, e)
	return b.err
}

type fixture struct {
	repo    *repository.Repository
	events  *recordingBus
	tokens  *MockTokenProvider
	catalog *service.CatalogService
	orders  *service.OrderService
	tenants *service.TenantService
	auth    *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.New().Repository(), nil)
}

func newFixtureWith(t *testing.T, repo *repository.Repository, cache service.CacheClient) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		repo:   repo,
		events: &recordingBus{},
		tokens: &MockTokenProvider{},
	}
	f.catalog = service.NewCatalogService(repo, log)
	f.orders = service.NewOrderService(repo, f.events, log)
	f.tenants = service.NewTenantService(repo, MockPasswordHasher{}, log)
	f.auth = service.NewAuthService(repo, MockPasswordHasher{}, f.tokens, cache, time.Hour,
		service.LoginThrottle{MaxFailures: 3, Window: time.Minute}, log)
	return f
}

func (f *fixture) seedTenant(t *testing.T, sub string) uuid.UUID {
	t.Helper()
	tn := &models.Tenant{Name: sub, Subdomain: sub}
	require.NoError(t, f.repo.Tenants.Create(context.Background(), tn))
	return tn.ID
}

func (f *fixture) seedUser(t *testing.T, username string, role models.Role, tenantID *uuid.UUID) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed_secret1",
		Role:     role,
		TenantID: tenantID,
	}
	require.NoError(t, f.repo.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) seedOwner(t *testing.T, username string, tenantID uuid.UUID) *models.User {
	t.Helper()
	return f.seedUser(t, username, models.RoleOwner, &tenantID)
}

func (f *fixture) seedProduct(t *testing.T, tenantID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, f.repo.Products.Create(context.Background(), tenant.For(tenantID), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.repo.Products.GetAny(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) totalOrders(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.repo.Orders.ListAll(context.Background(), repository.OrderListFilter{})
	require.NoError(t, err)
	return total
}

// as строит контекст запроса так же, как это делают middleware.
func as(u *models.User) context.Context {
	ctx := context.Background()
	if u != nil {
		ctx = service.WithPrincipal(ctx, u)
	}
	return ctx
}

func inTenant(ctx context.Context, id uuid.UUID) context.Context {
	return tenant.WithScope(ctx, tenant.For(id))
}
