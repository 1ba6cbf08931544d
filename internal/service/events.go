package service

import (
	"time"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
)

type OrderItemEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	LineTotal string    `json:"line_total"`
}

type OrderCreatedEvent struct {
	OrderID    uuid.UUID        `json:"order_id"`
	TenantID   uuid.UUID        `json:"tenant_id"`
	CustomerID uuid.UUID        `json:"customer_id"`
	Items      []OrderItemEvent `json:"items"`
	Total      string           `json:"total_amount"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy uuid.UUID `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func orderCreatedEvent(o models.Order) OrderCreatedEvent {
	items := make([]OrderItemEvent, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemEvent{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
			LineTotal: it.LineTotal().StringFixed(2),
		})
	}
	return OrderCreatedEvent{
		OrderID:    o.ID,
		TenantID:   o.TenantID,
		CustomerID: o.CustomerID,
		Items:      items,
		Total:      o.TotalAmount.StringFixed(2),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}
