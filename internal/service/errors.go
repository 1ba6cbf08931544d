package service

import (
	"errors"
	"fmt"

	"marketplace-service/internal/policy"
	"marketplace-service/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated     = policy.ErrUnauthenticated
	ErrPermissionDenied    = policy.ErrPermissionDenied
	ErrNotFound            = errors.New("not found")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrValidation          = errors.New("validation error")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTooManyRequests     = errors.New("too many requests")
)

// InsufficientStockError: errors.Is(err, ErrInsufficientStock) == true.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (%s): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type InvalidProductError struct {
	ProductID uuid.UUID
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: %s", e.ProductID)
}

func (e *InvalidProductError) Is(target error) bool { return target == ErrInvalidProduct }

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapRepoErr переводит ошибки хранилища в таксономию сервиса.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNoActiveTenant):
		return ErrPermissionDenied
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, repository.ErrCheckViolation):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: record is referenced by other records", ErrValidation)
	}
	return err
}
