package handlers

import (
	"net/http"
	"strings"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// Place godoc
// @Summary Оформление заказа
// @Description Корзина может содержать товары разных магазинов: создаётся по заказу на магазин, атомарно
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cart body dto.PlaceOrderRequest true "Корзина"
// @Success 201 {object} dto.PlaceOrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверная корзина"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Нет токена"
// @Failure 409 {object} dto.ConflictErrorResponse "Остаток изменился, повторите запрос"
// @Failure 422 {object} dto.UnprocessableErrorResponse "Товар не найден или не хватает остатка"
// @Router /api/v1/orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	cart := make([]service.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			bindError(c, h.log, err)
			return
		}
		cart = append(cart, service.CartLine{ProductID: pid, Quantity: it.Quantity})
	}

	orders, err := h.orders.PlaceOrder(c.Request.Context(), cart)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := dto.PlaceOrderResponse{Orders: make([]dto.OrderResponse, 0, len(orders))}
	for i := range orders {
		resp.Orders = append(resp.Orders, dto.NewOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Список заказов
// @Description OWNER/STAFF видят заказы своего магазина, покупатель только свои
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Фильтр по статусу"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.OrderListResponse
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Нет токена"
// @Router /api/v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	f := service.OrderListFilter{Limit: limit, Offset: offset}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		st := models.OrderStatus(raw)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid status", []dto.FieldError{
				{Field: "status", Message: "unknown order status", Tag: "oneof"},
			}))
			return
		}
		f.Status = &st
	}

	list, total, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := dto.OrderListResponse{Items: make([]dto.OrderResponse, 0, len(list)), Total: total, Limit: limit, Offset: offset}
	for i := range list {
		resp.Items = append(resp.Items, dto.NewOrderResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Заказ по id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(o))
}

// UpdateStatus godoc
// @Summary Смена статуса заказа
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Param status body dto.UpdateOrderStatusRequest true "Новый статус"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Недопустимый переход"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Нет прав"
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Статус изменён параллельно"
// @Router /api/v1/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	o, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(o))
}
