package service

import (
	"context"
	"regexp"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/policy"
	"marketplace-service/internal/repository"

	"github.com/google/uuid"
	"github.com/nanorand/nanorand"
	"go.uber.org/zap"
)

var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)

type CreateTenantInput struct {
	Name      string
	Subdomain string // пусто: генерируется из имени
	DomainURL *string
	Logo      *string
}

type TenantService struct {
	repo   *repository.Repository
	hasher PasswordHasher
	log    *zap.Logger
}

func NewTenantService(repo *repository.Repository, hasher PasswordHasher, log *zap.Logger) *TenantService {
	return &TenantService{repo: repo, hasher: hasher, log: log}
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "-")
	}
	if s == "" {
		s = "shop"
	}
	return s
}

func randomSuffix() (string, error) {
	rng, err := nanorand.Gen(12)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range strings.ToLower(rng) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 6 {
			break
		}
	}
	if b.Len() == 0 {
		return uuid.NewString()[:6], nil
	}
	return b.String(), nil
}

func (s *TenantService) subdomainFor(in CreateTenantInput) (string, error) {
	sub := strings.ToLower(strings.TrimSpace(in.Subdomain))
	if sub == "" {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		sub = slugify(in.Name) + "-" + suffix
	}
	if !subdomainRe.MatchString(sub) {
		return "", validation("invalid subdomain %q", sub)
	}
	return sub, nil
}

// CreateTenant создаёт магазин и делает автора его владельцем в одной транзакции.
func (s *TenantService) CreateTenant(ctx context.Context, in CreateTenantInput) (*models.Tenant, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(principal, policy.TenantCreate, policy.Resource{}); err != nil {
		return nil, err
	}
	if principal.TenantID != nil {
		return nil, validation("user already belongs to a tenant")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return nil, validation("name must be 1..100 characters")
	}
	sub, err := s.subdomainFor(in)
	if err != nil {
		return nil, err
	}

	t := &models.Tenant{
		Name:      name,
		Subdomain: sub,
		DomainURL: trimmedOrNil(in.DomainURL),
		Logo:      trimmedOrNil(in.Logo),
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Tenants.Create(ctx, t); err != nil {
			return err
		}
		ok, err := tx.Users.PromoteToOwner(ctx, principal.ID, t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return validation("user already belongs to a tenant")
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.log.Info("tenant created",
		zap.Stringer("tenant_id", t.ID),
		zap.String("subdomain", t.Subdomain),
		zap.Stringer("owner_id", principal.ID),
	)
	return t, nil
}

func (s *TenantService) ListTenants(ctx context.Context, limit, offset int) ([]models.Tenant, int64, error) {
	return s.repo.Tenants.List(ctx, limit, offset)
}

func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := s.repo.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// AddStaff: владелец заводит сотрудника своего магазина.
func (s *TenantService) AddStaff(ctx context.Context, in RegisterInput) (*models.User, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if principal.TenantID == nil {
		return nil, ErrPermissionDenied
	}
	tenantID := *principal.TenantID
	if err := policy.Authorize(principal, policy.StaffCreate, policy.TenantRes(tenantID)); err != nil {
		return nil, err
	}

	in, err = normalizeRegister(in)
	if err != nil {
		return nil, err
	}

	u := &models.User{Role: models.RoleStaff, TenantID: &tenantID}
	if err := createAccount(ctx, s.repo.Users, s.hasher, in, u); err != nil {
		return nil, err
	}

	s.log.Info("staff added",
		zap.Stringer("user_id", u.ID),
		zap.Stringer("tenant_id", tenantID),
	)
	return u, nil
}
