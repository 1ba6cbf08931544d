package dto

import (
	"time"

	"marketplace-service/internal/models"
)

type CartLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type PlaceOrderRequest struct {
	Items []CartLineRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PAID SHIPPED COMPLETED CANCELLED"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"tenant_id"`
	CustomerID  string              `json:"customer_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

type PlaceOrderResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type OrderListResponse struct {
	Items  []OrderResponse `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
			LineTotal: it.LineTotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:          o.ID.String(),
		TenantID:    o.TenantID.String(),
		CustomerID:  o.CustomerID.String(),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
