package token

import (
	"context"
	"errors"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type HSProvider struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewHSProvider(secret, issuer, audience string) *HSProvider {
	return &HSProvider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

type customClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

func (p *HSProvider) SignAccess(ctx context.Context, u *models.User, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl)

	claims := customClaims{
		UserID:   u.ID.String(),
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // jti для отзыва через blacklist
			Issuer:    p.issuer,
			Subject:   u.ID.String(),
			Audience:  []string{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if u.TenantID != nil {
		claims.TenantID = u.TenantID.String()
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.secret)
	return signed, exp, err
}

func (p *HSProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &customClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	},
		jwt.WithAudience(p.audience),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	cc, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	uid, err := uuid.Parse(cc.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &service.Claims{
		UserID:   uid,
		Username: cc.Username,
		Role:     models.Role(cc.Role),
		TokenID:  cc.ID,
		Exp:      cc.ExpiresAt.Time,
	}
	if cc.TenantID != "" {
		tid, err := uuid.Parse(cc.TenantID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.TenantID = &tid
	}
	return claims, nil
}
