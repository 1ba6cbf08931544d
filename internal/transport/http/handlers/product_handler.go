package handlers

import (
	"net/http"
	"strings"

	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog *service.CatalogService
	log     *zap.Logger
}

func NewProductHandler(catalog *service.CatalogService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, log: log}
}

// List godoc
// @Summary Каталог товаров
// @Description С X-Tenant-ID (или ?tenant=) только товары магазина, иначе весь каталог
// @Tags products
// @Produce json
// @Param X-Tenant-ID header string false "ID магазина"
// @Param category query string false "Категория"
// @Param q query string false "Поиск по названию"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.ProductListResponse
// @Router /api/v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	f := service.ProductFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	}
	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		f.Category = &cat
	}

	list, total, err := h.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := dto.ProductListResponse{Items: make([]dto.ProductResponse, 0, len(list)), Total: total, Limit: limit, Offset: offset}
	for i := range list {
		resp.Items = append(resp.Items, dto.NewProductResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Товар по id
// @Tags products
// @Produce json
// @Param id path string true "ID товара"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(p))
}

// Create godoc
// @Summary Создание товара
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body dto.CreateProductRequest true "Товар"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Нет токена"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Нет прав или не выбран магазин"
// @Router /api/v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewProductResponse(p))
}

// Update godoc
// @Summary Изменение товара
// @Description Частичное обновление; переданы только изменяемые поля
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Param product body dto.UpdateProductRequest true "Изменения"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Нет прав"
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Router /api/v1/products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	patch := repository.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(p))
}

// Delete godoc
// @Summary Удаление товара
// @Tags products
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 204 "Удалён"
// @Failure 400 {object} dto.ValidationErrorResponse "Товар есть в заказах"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Нет прав"
// @Failure 404 {object} dto.NotFoundErrorResponse "Товар не найден"
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
