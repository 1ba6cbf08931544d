package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Rehasher опционален: хэшер сообщает, что хэш сделан со старой стоимостью.
type Rehasher interface {
	NeedsRehash(hash string) bool
}

type Claims struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
	TenantID *uuid.UUID
	TokenID  string
	Exp      time.Time
}

type TokenProvider interface {
	SignAccess(ctx context.Context, u *models.User, ttl time.Duration) (token string, exp time.Time, err error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}

type CacheClient interface {
	// Rate limiting
	SetRateLimit(ctx context.Context, key string, ttl time.Duration) error
	CheckRateLimit(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Blacklist токенов
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)

	Del(ctx context.Context, keys ...string) error
}

type EventBus interface {
	PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
}
