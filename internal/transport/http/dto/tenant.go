package dto

import (
	"time"

	"marketplace-service/internal/models"
)

type CreateTenantRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Subdomain string  `json:"subdomain" binding:"omitempty,max=63"`
	DomainURL *string `json:"domain_url" binding:"omitempty,url"`
	Logo      *string `json:"logo"`
}

type TenantResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Subdomain string  `json:"subdomain"`
	DomainURL *string `json:"domain_url"`
	Logo      *string `json:"logo"`
	CreatedAt string  `json:"created_at"`
}

type TenantListResponse struct {
	Items  []TenantResponse `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func NewTenantResponse(t *models.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Subdomain: t.Subdomain,
		DomainURL: t.DomainURL,
		Logo:      t.Logo,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
