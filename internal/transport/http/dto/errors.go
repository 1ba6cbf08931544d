package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BaseError общий формат ошибки API.
// Code машинный код (snake_case), Fields только для ошибок валидации.
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// Типы ниже совпадают по JSON с BaseError и нужны для @Failure в swagger.

// ValidationErrorResponse 400, code "validation_error"
type ValidationErrorResponse BaseError

// UnauthorizedErrorResponse 401, code "unauthorized"
type UnauthorizedErrorResponse BaseError

// ForbiddenErrorResponse 403, code "forbidden"
type ForbiddenErrorResponse BaseError

// NotFoundErrorResponse 404, code "not_found"
type NotFoundErrorResponse BaseError

// ConflictErrorResponse 409, code "conflict"
type ConflictErrorResponse BaseError

// UnprocessableErrorResponse 422: товар не найден или не хватает остатка.
// Code "invalid_product" | "insufficient_stock"
type UnprocessableErrorResponse BaseError

// RateLimitedErrorResponse 429, code "rate_limited"
type RateLimitedErrorResponse BaseError

// InternalErrorResponse 500, code "internal_error"
type InternalErrorResponse BaseError

func NewValidationError(msg string, fields []FieldError) ValidationErrorResponse {
	return ValidationErrorResponse(BaseError{Code: "validation_error", Message: msg, Fields: fields})
}
func NewUnauthorizedError(msg string) UnauthorizedErrorResponse {
	return UnauthorizedErrorResponse(BaseError{Code: "unauthorized", Message: msg})
}
func NewForbiddenError(msg string) ForbiddenErrorResponse {
	return ForbiddenErrorResponse(BaseError{Code: "forbidden", Message: msg})
}
func NewNotFoundError(msg string) NotFoundErrorResponse {
	return NotFoundErrorResponse(BaseError{Code: "not_found", Message: msg})
}
func NewConflictError(msg string) ConflictErrorResponse {
	return ConflictErrorResponse(BaseError{Code: "conflict", Message: msg})
}
func NewUnprocessableError(code, msg string) UnprocessableErrorResponse {
	return UnprocessableErrorResponse(BaseError{Code: code, Message: msg})
}
func NewRateLimitedError(msg string) RateLimitedErrorResponse {
	return RateLimitedErrorResponse(BaseError{Code: "rate_limited", Message: msg})
}
func NewInternalError(details string) InternalErrorResponse {
	return InternalErrorResponse(BaseError{Code: "internal_error", Message: "internal server error", Details: details})
}

// BindingFields раскладывает ошибку gin-биндинга по полям.
func BindingFields(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: fieldMessage(fe),
			Tag:     fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "uuid":
		return "must be a valid uuid"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "dive":
		return "is invalid"
	}
	return "is invalid"
}
