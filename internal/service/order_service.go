package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/policy"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService struct {
	repo   *repository.Repository
	events EventBus // nil отключает публикацию
	now    func() time.Time
	log    *zap.Logger
}

func NewOrderService(repo *repository.Repository, events EventBus, log *zap.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// PlaceOrder разбивает корзину по магазинам и создаёт по заказу на магазин
// в одной транзакции: либо все заказы, либо ни одного.
func (s *OrderService) PlaceOrder(ctx context.Context, cart []CartLine) ([]models.Order, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCart(cart); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(cart))
	for i, l := range cart {
		ids[i] = l.ProductID
	}

	// чтение без области: корзина пересекает магазины
	found, err := s.repo.Products.GetAnyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	for _, l := range cart {
		if _, ok := products[l.ProductID]; !ok {
			return nil, &InvalidProductError{ProductID: l.ProductID}
		}
	}
	for _, l := range cart {
		p := products[l.ProductID]
		if p.Stock < l.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: l.Quantity,
				Available: p.Stock,
			}
		}
	}

	groups := partitionByTenant(cart, products)
	now := s.now()

	var created []models.Order
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		created = created[:0]
		for _, g := range groups {
			ord, err := s.placeForTenant(ctx, tx, principal.ID, g, now)
			if err != nil {
				return err
			}
			created = append(created, ord)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("checkout rolled back",
			zap.Stringer("customer_id", principal.ID),
			zap.Int("tenants", len(groups)),
			zap.Error(err),
		)
		return nil, mapRepoErr(err)
	}

	s.log.Info("checkout completed",
		zap.Stringer("customer_id", principal.ID),
		zap.Int("orders", len(created)),
	)

	if s.events != nil {
		for _, o := range created {
			if err := s.events.PublishOrderCreated(ctx, orderCreatedEvent(o)); err != nil {
				s.log.Warn("publish order created failed", zap.Stringer("order_id", o.ID), zap.Error(err))
			}
		}
	}

	return created, nil
}

func (s *OrderService) placeForTenant(ctx context.Context, tx *repository.Repository, customerID uuid.UUID, g tenantGroup, now time.Time) (models.Order, error) {
	scope := tenant.For(g.TenantID)

	ord := models.Order{
		ID:         uuid.New(),
		TenantID:   g.TenantID,
		CustomerID: customerID,
		Status:     models.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	items := make([]models.OrderItem, 0, len(g.Lines))
	total := decimal.Zero
	for i, l := range g.Lines {
		// повторная проверка остатка в момент записи
		price, ok, err := tx.Products.DeductStock(ctx, scope, l.ProductID, l.Quantity)
		if err != nil {
			return models.Order{}, err
		}
		if !ok {
			return models.Order{}, fmt.Errorf("%w: stock of product %s changed concurrently", ErrTransactionConflict, l.ProductID)
		}
		it := models.OrderItem{
			ID:        uuid.New(),
			OrderID:   ord.ID,
			ProductID: l.ProductID,
			Line:      i + 1,
			Quantity:  l.Quantity,
			Price:     price,
			CreatedAt: now,
		}
		total = total.Add(it.LineTotal())
		items = append(items, it)
	}
	if total.GreaterThan(models.MaxAmount) {
		return models.Order{}, validation("order total %s exceeds %s", total.StringFixed(2), models.MaxAmount.StringFixed(2))
	}
	ord.TotalAmount = total

	if err := tx.Orders.Create(ctx, scope, &ord); err != nil {
		return models.Order{}, err
	}
	if err := tx.OrderItems.BulkCreate(ctx, items); err != nil {
		return models.Order{}, err
	}
	ord.Items = items
	return ord, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}

	rf := repository.OrderListFilter{Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	switch principal.Role {
	case models.RoleOwner, models.RoleStaff:
		return s.repo.Orders.ListScoped(ctx, scopeFor(ctx, principal), rf)
	case models.RoleCustomer:
		// покупатель видит свои заказы во всех магазинах или в выбранном
		rf.CustomerID = &principal.ID
		if sc := tenant.FromContext(ctx); sc.Active() {
			return s.repo.Orders.ListScoped(ctx, sc, rf)
		}
		return s.repo.Orders.ListAll(ctx, rf)
	}
	return nil, 0, ErrPermissionDenied
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	var ord *models.Order
	switch principal.Role {
	case models.RoleOwner, models.RoleStaff:
		ord, err = s.repo.Orders.GetScoped(ctx, scopeFor(ctx, principal), id)
	case models.RoleCustomer:
		ord, err = s.repo.Orders.GetAny(ctx, id)
	default:
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}
	// чужой заказ неотличим от несуществующего
	if ord == nil || !policy.CanPerform(principal, policy.OrderRead, policy.OrderOf(ord)) {
		return nil, ErrNotFound
	}
	return ord, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	principal, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validation("unknown order status %q", status)
	}

	scope := scopeFor(ctx, principal)
	if !scope.Active() {
		return nil, ErrPermissionDenied
	}

	ord, err := s.repo.Orders.GetScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrNotFound
	}
	if err := policy.Authorize(principal, policy.OrderUpdateStatus, policy.OrderOf(ord)); err != nil {
		return nil, err
	}

	from := ord.Status
	if !from.CanTransitionTo(status) {
		return nil, validation("cannot change order status from %s to %s", from, status)
	}

	ok, err := s.repo.Orders.UpdateStatus(ctx, scope, id, from, status)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s status changed concurrently", ErrTransactionConflict, id)
	}

	updated, err := s.repo.Orders.GetScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.log.Info("order status changed",
		zap.Stringer("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)

	if s.events != nil {
		ev := OrderStatusChangedEvent{
			OrderID:   id,
			TenantID:  updated.TenantID,
			From:      string(from),
			To:        string(status),
			ChangedBy: principal.ID,
			ChangedAt: s.now(),
		}
		if err := s.events.PublishOrderStatusChanged(ctx, ev); err != nil {
			s.log.Warn("publish order status changed failed", zap.Stringer("order_id", id), zap.Error(err))
		}
	}

	return updated, nil
}
