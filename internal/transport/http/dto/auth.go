package dto

import (
	"time"

	"marketplace-service/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenant_id"`
	CreatedAt string  `json:"created_at"`
}

type LoginResponse struct {
	AccessToken     string       `json:"access_token"`
	TokenType       string       `json:"token_type"`
	AccessExpiresIn int64        `json:"access_expires_in"`
	User            UserResponse `json:"user"`
}

func NewUserResponse(u *models.User) UserResponse {
	r := UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.TenantID != nil {
		s := u.TenantID.String()
		r.TenantID = &s
	}
	return r
}
