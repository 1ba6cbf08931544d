package repository

import (
	"context"
	"errors"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// PromoteToOwner срабатывает только пока пользователь не привязан к магазину.
	PromoteToOwner(ctx context.Context, userID, tenantID uuid.UUID) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) UserRepo { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR lower(email) = lower(?)", username, email).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepo) PromoteToOwner(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND tenant_id IS NULL", userID).
		Updates(map[string]any{
			"role":      models.RoleOwner,
			"tenant_id": tenantID,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}
