package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"

	"go.uber.org/zap"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

// LoginThrottle: после MaxFailures неудачных попыток вход блокируется на Window.
type LoginThrottle struct {
	MaxFailures int
	Window      time.Duration
}

type AuthService struct {
	repo      *repository.Repository
	hasher    PasswordHasher
	tokens    TokenProvider
	cache     CacheClient // может быть nil, тогда без throttle и blacklist
	accessTTL time.Duration
	throttle  LoginThrottle

	now func() time.Time
	log *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	hasher PasswordHasher,
	tokens TokenProvider,
	cache CacheClient,
	accessTTL time.Duration,
	throttle LoginThrottle,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		cache:     cache,
		accessTTL: accessTTL,
		throttle:  throttle,
		now:       time.Now,
		log:       log,
	}
}

func normalizeRegister(in RegisterInput) (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" || len(in.Username) > 150 {
		return in, validation("username must be 1..150 characters")
	}
	if strings.ContainsAny(in.Username, " \t\n") {
		return in, validation("username must not contain whitespace")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, validation("invalid email")
	}
	if len(in.Password) < 6 {
		return in, validation("password must be at least 6 characters")
	}
	return in, nil
}

// createAccount создаёт пользователя с заданной ролью; используется регистрацией и AddStaff.
func createAccount(ctx context.Context, users repository.UserRepo, hasher PasswordHasher, in RegisterInput, u *models.User) error {
	exists, err := users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	u.Username = in.Username
	u.Email = in.Email
	u.Password = hash
	return mapRepoErr(users.Create(ctx, u))
}

// Register всегда создаёт CUSTOMER; магазин появляется только через CreateTenant.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in, err := normalizeRegister(in)
	if err != nil {
		return nil, err
	}

	u := &models.User{Role: models.RoleCustomer}
	if err := createAccount(ctx, s.repo.Users, s.hasher, in, u); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Stringer("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

func failuresKey(username string) string { return "login:fail:" + strings.ToLower(username) }
func blockKey(username string) string    { return "login:block:" + strings.ToLower(username) }

func (s *AuthService) throttled(ctx context.Context, username string) bool {
	if s.cache == nil || s.throttle.MaxFailures <= 0 {
		return false
	}
	blocked, err := s.cache.CheckRateLimit(ctx, blockKey(username))
	if err != nil {
		// redis недоступен: не блокируем вход
		s.log.Warn("login throttle check failed", zap.Error(err))
		return false
	}
	return blocked
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.cache == nil || s.throttle.MaxFailures <= 0 {
		return
	}
	n, err := s.cache.Incr(ctx, failuresKey(username), s.throttle.Window)
	if err != nil {
		s.log.Warn("login failure counter failed", zap.Error(err))
		return
	}
	if n >= int64(s.throttle.MaxFailures) {
		if err := s.cache.SetRateLimit(ctx, blockKey(username), s.throttle.Window); err != nil {
			s.log.Warn("login block failed", zap.Error(err))
		}
		if err := s.cache.Del(ctx, failuresKey(username)); err != nil {
			s.log.Warn("login failure counter reset failed", zap.Error(err))
		}
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.throttled(ctx, username) {
		return nil, ErrTooManyRequests
	}

	user, err := s.repo.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.Password, password) {
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, failuresKey(username)); err != nil {
			s.log.Warn("login failure counter reset failed", zap.Error(err))
		}
	}
	s.rehashIfNeeded(ctx, user, password)

	access, exp, err := s.tokens.SignAccess(ctx, user, s.accessTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Stringer("user_id", user.ID))
	return &LoginResult{AccessToken: access, ExpiresAt: exp, User: user}, nil
}

// rehashIfNeeded перехэширует пароль после смены стоимости bcrypt; ошибки не мешают входу.
func (s *AuthService) rehashIfNeeded(ctx context.Context, user *models.User, password string) {
	rh, ok := s.hasher.(Rehasher)
	if !ok || !rh.NeedsRehash(user.Password) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repo.Users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.log.Warn("password rehash failed", zap.Stringer("user_id", user.ID), zap.Error(err))
		return
	}
	user.Password = hash
	s.log.Info("password rehashed", zap.Stringer("user_id", user.ID))
}

// Logout отзывает токен до истечения его срока. Без redis токены не отзываются.
func (s *AuthService) Logout(ctx context.Context, access string) error {
	claims, err := s.tokens.ParseAndValidateAccess(ctx, access)
	if err != nil {
		return ErrUnauthenticated
	}
	if s.cache == nil {
		s.log.Warn("logout without revocation store, token stays valid until expiry", zap.Stringer("user_id", claims.UserID))
		return nil
	}
	if claims.TokenID == "" {
		return errors.New("token has no id")
	}

	ttl := claims.Exp.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.BlacklistToken(ctx, claims.TokenID, ttl); err != nil {
		return err
	}
	s.log.Info("user logged out", zap.Stringer("user_id", claims.UserID))
	return nil
}

func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	return requireAuth(ctx)
}
