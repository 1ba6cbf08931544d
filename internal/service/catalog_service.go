package service

import (
	"context"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/policy"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductInput struct {
	TenantID    *uuid.UUID // пусто: магазин из области запроса
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    *string
}

type ProductFilter struct {
	Category *string
	Query    string
	Limit    int
	Offset   int
}

type CatalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: log}
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return validation("price must be >= 0")
	}
	if p.GreaterThan(models.MaxAmount) {
		return validation("price must be <= %s", models.MaxAmount.StringFixed(2))
	}
	if !p.Equal(p.Round(2)) {
		return validation("price must have at most 2 decimal places")
	}
	return nil
}

func validateStock(n int) error {
	if n < 0 || n > models.MaxStock {
		return validation("stock must be in 0..%d", models.MaxStock)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return validation("name is required")
	}
	if len(name) > 255 {
		return validation("name must be at most 255 characters")
	}
	return nil
}

// ListProducts: с активной областью только товары магазина, без неё весь каталог.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	rf := repository.ProductListFilter{Category: f.Category, Query: f.Query, Limit: f.Limit, Offset: f.Offset}
	if sc := scopeFor(ctx, PrincipalFromContext(ctx)); sc.Active() {
		return s.repo.Products.ListScoped(ctx, sc, rf)
	}
	return s.repo.Products.ListAll(ctx, rf)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var (
		p   *models.Product
		err error
	)
	if sc := scopeFor(ctx, PrincipalFromContext(ctx)); sc.Active() {
		p, err = s.repo.Products.GetScoped(ctx, sc, id)
	} else {
		p, err = s.repo.Products.GetAny(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	principal := PrincipalFromContext(ctx)

	res := policy.Resource{}
	if in.TenantID != nil {
		res.TenantID = *in.TenantID
	}
	if err := policy.Authorize(principal, policy.ProductCreate, res); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(in.Stock); err != nil {
		return nil, err
	}

	p := &models.Product{
		TenantID:    res.TenantID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    trimmedOrNil(in.Category),
	}
	if err := s.repo.Products.Create(ctx, scopeFor(ctx, principal), p); err != nil {
		return nil, mapRepoErr(err)
	}

	s.log.Info("product created",
		zap.Stringer("product_id", p.ID),
		zap.Stringer("tenant_id", p.TenantID),
	)
	return p, nil
}

// authorizeWrite: неаутентифицирован, нет области, не найден, нет прав.
func (s *CatalogService) authorizeWrite(ctx context.Context, id uuid.UUID, action policy.Action) (tenant.Scope, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return tenant.None(), err
	}
	scope := scopeFor(ctx, principal)
	if !scope.Active() {
		return tenant.None(), ErrPermissionDenied
	}
	p, err := s.repo.Products.GetScoped(ctx, scope, id)
	if err != nil {
		return tenant.None(), err
	}
	if p == nil {
		return tenant.None(), ErrNotFound
	}
	if err := policy.Authorize(principal, action, policy.ProductOf(p)); err != nil {
		return tenant.None(), err
	}
	return scope, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch repository.ProductPatch) (*models.Product, error) {
	scope, err := s.authorizeWrite(ctx, id, policy.ProductUpdate)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if err := validateName(n); err != nil {
			return nil, err
		}
		patch.Name = &n
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		patch.Description = &d
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Stock != nil {
		if err := validateStock(*patch.Stock); err != nil {
			return nil, err
		}
	}

	p, err := s.repo.Products.Update(ctx, scope, id, patch)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	scope, err := s.authorizeWrite(ctx, id, policy.ProductDelete)
	if err != nil {
		return err
	}

	ok, err := s.repo.Products.Delete(ctx, scope, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info("product deleted", zap.Stringer("product_id", id))
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
