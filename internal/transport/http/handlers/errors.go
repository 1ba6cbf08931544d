package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// toHTTPError переводит ошибку сервиса в статус и тело ответа.
func toHTTPError(err error) (int, any) {
	var stockErr *service.InsufficientStockError
	var productErr *service.InvalidProductError

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.NewUnauthorizedError("authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewUnauthorizedError("invalid username or password")
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewForbiddenError("permission denied")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, dto.NewNotFoundError("not found")
	case errors.As(err, &stockErr):
		resp := dto.NewUnprocessableError("insufficient_stock", err.Error())
		resp.Fields = []dto.FieldError{{
			Field:   stockErr.ProductID.String(),
			Message: "requested " + strconv.Itoa(stockErr.Requested) + ", available " + strconv.Itoa(stockErr.Available),
		}}
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &productErr):
		return http.StatusUnprocessableEntity, dto.NewUnprocessableError("invalid_product", err.Error())
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, dto.NewValidationError(err.Error(), []dto.FieldError{})
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, dto.NewConflictError("already exists")
	case errors.Is(err, service.ErrTransactionConflict):
		return http.StatusConflict, dto.NewConflictError("concurrent update, retry the request")
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests, dto.NewRateLimitedError("too many login attempts, try later")
	}
	return http.StatusInternalServerError, dto.NewInternalError("")
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	status, body := toHTTPError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

func bindError(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", dto.BindingFields(err)))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name, []dto.FieldError{
			{Field: name, Message: "must be a valid uuid", Tag: "uuid"},
		}))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams читает limit/offset и нормализует их так же, как хранилище.
func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	parse := func(name string) (int, bool) {
		raw := c.Query(name)
		if raw == "" {
			return 0, true
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name, []dto.FieldError{
				{Field: name, Message: "must be a non-negative integer"},
			}))
			return 0, false
		}
		return n, true
	}
	if limit, ok = parse("limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = parse("offset"); !ok {
		return 0, 0, false
	}
	limit, offset = repository.NormalizePage(limit, offset)
	return limit, offset, true
}
