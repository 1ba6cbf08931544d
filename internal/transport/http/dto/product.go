package dto

import (
	"time"

	"marketplace-service/internal/models"

	"github.com/shopspring/decimal"
)

// Цена принимается строкой "19.99" или числом, отдаётся всегда строкой с двумя знаками.
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"19.99"`
	Stock       int              `json:"stock" binding:"gte=0"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string" example:"19.99"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Stock       int     `json:"stock"`
	Category    *string `json:"category"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type ProductListResponse struct {
	Items  []ProductResponse `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		TenantID:    p.TenantID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
