package handlers

import (
	"net/http"

	"marketplace-service/internal/service"
	"marketplace-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TenantHandler struct {
	tenants *service.TenantService
	log     *zap.Logger
}

func NewTenantHandler(tenants *service.TenantService, log *zap.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, log: log}
}

// List godoc
// @Summary Список магазинов
// @Tags tenants
// @Produce json
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} dto.TenantListResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные параметры"
// @Router /api/v1/tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	list, total, err := h.tenants.ListTenants(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := dto.TenantListResponse{Items: make([]dto.TenantResponse, 0, len(list)), Total: total, Limit: limit, Offset: offset}
	for i := range list {
		resp.Items = append(resp.Items, dto.NewTenantResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Магазин по id
// @Tags tenants
// @Produce json
// @Param id path string true "ID магазина"
// @Success 200 {object} dto.TenantResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Магазин не найден"
// @Router /api/v1/tenants/{id} [get]
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.tenants.GetTenant(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTenantResponse(t))
}

// Create godoc
// @Summary Создание магазина
// @Description Создаёт магазин, автор становится его владельцем (OWNER)
// @Tags tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenant body dto.CreateTenantRequest true "Данные магазина"
// @Success 201 {object} dto.TenantResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные или пользователь уже привязан к магазину"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Нет токена"
// @Failure 409 {object} dto.ConflictErrorResponse "Поддомен занят"
// @Router /api/v1/tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	t, err := h.tenants.CreateTenant(c.Request.Context(), service.CreateTenantInput{
		Name:      req.Name,
		Subdomain: req.Subdomain,
		DomainURL: req.DomainURL,
		Logo:      req.Logo,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTenantResponse(t))
}

// AddStaff godoc
// @Summary Добавление сотрудника
// @Description Владелец создаёт учётную запись STAFF в своём магазине
// @Tags tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param staff body dto.RegisterRequest true "Данные сотрудника"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Нет токена"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Не владелец магазина"
// @Failure 409 {object} dto.ConflictErrorResponse "Пользователь уже существует"
// @Router /api/v1/tenants/staff [post]
func (h *TenantHandler) AddStaff(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	u, err := h.tenants.AddStaff(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(u))
}
