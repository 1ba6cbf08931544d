package repository

import (
	"context"

	"marketplace-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItemRepo interface {
	BulkCreate(ctx context.Context, items []models.OrderItem) error
	// SumByOrder sum(quantity * price) по позициям заказа.
	SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

type orderItemRepo struct{ db *gorm.DB }

func NewOrderItemRepo(db *gorm.DB) OrderItemRepo { return &orderItemRepo{db: db} }

func (r *orderItemRepo) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return translate(r.db.WithContext(ctx).Create(&items).Error)
}

func (r *orderItemRepo) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var res struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(quantity * price), 0) AS total").
		Where("order_id = ?", orderID).
		Scan(&res).Error
	return res.Total, err
}
