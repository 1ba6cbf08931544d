package service

import (
	"marketplace-service/internal/models"

	"github.com/google/uuid"
)

type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type OrderListFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

// tenantGroup строки корзины одного магазина в порядке корзины.
type tenantGroup struct {
	TenantID uuid.UUID
	Lines    []CartLine
}

// partitionByTenant: магазины в порядке первого появления.
func partitionByTenant(cart []CartLine, products map[uuid.UUID]models.Product) []tenantGroup {
	idx := map[uuid.UUID]int{}
	groups := make([]tenantGroup, 0)
	for _, l := range cart {
		tid := products[l.ProductID].TenantID
		i, ok := idx[tid]
		if !ok {
			i = len(groups)
			idx[tid] = i
			groups = append(groups, tenantGroup{TenantID: tid})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	return groups
}

func validateCart(cart []CartLine) error {
	if len(cart) == 0 {
		return validation("cart is empty")
	}
	seen := make(map[uuid.UUID]bool, len(cart))
	for _, l := range cart {
		if l.ProductID == uuid.Nil {
			return validation("product id is required")
		}
		if l.Quantity <= 0 {
			return validation("quantity must be > 0 for product %s", l.ProductID)
		}
		if seen[l.ProductID] {
			return validation("duplicate product %s in cart", l.ProductID)
		}
		seen[l.ProductID] = true
	}
	return nil
}
