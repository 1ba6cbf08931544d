// Package memory is an in-process implementation of the repository
// contracts. It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	tenants  map[uuid.UUID]models.Tenant
	users    map[uuid.UUID]models.User
	products map[uuid.UUID]models.Product
	orders   map[uuid.UUID]models.Order // без Items
	items    map[uuid.UUID][]models.OrderItem
}

func newState() *state {
	return &state{
		tenants:  map[uuid.UUID]models.Tenant{},
		users:    map[uuid.UUID]models.User{},
		products: map[uuid.UUID]models.Product{},
		orders:   map[uuid.UUID]models.Order{},
		items:    map[uuid.UUID][]models.OrderItem{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]models.OrderItem(nil), v...)
	}
	return c
}

// Store сериализует все операции одним мьютексом. Транзакция работает над
// копией состояния и подменяет его только при успешном завершении.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

type view struct {
	store *Store
	txSt  *state // не nil внутри транзакции: мьютекс уже захвачен
}

func (v *view) lock() func() {
	if v.txSt != nil {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

func (v *view) state() *state {
	if v.txSt != nil {
		return v.txSt
	}
	return v.store.st
}

func (v *view) now() time.Time { return v.store.now() }

func (v *view) repository(tx repository.TxRunner) *repository.Repository {
	return repository.Assemble(
		&tenantRepo{v},
		&userRepo{v},
		&productRepo{v},
		&orderRepo{v},
		&orderItemRepo{v},
		tx,
	)
}

// Repository отдаёт набор репозиториев поверх хранилища.
func (s *Store) Repository() *repository.Repository {
	return (&view{store: s}).repository(s.withTx)
}

func (s *Store) withTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	// вложенный WithTx выполняется в той же транзакции
	if err := fn((&view{store: s, txSt: work}).repository(nil)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func newer(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

func page[T any](all []T, limit, offset int) []T {
	limit, offset = repository.NormalizePage(limit, offset)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortProducts(list []models.Product) {
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[i].ID, list[j].CreatedAt, list[j].ID)
	})
}

func sortOrders(list []models.Order) {
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[i].ID, list[j].CreatedAt, list[j].ID)
	})
}
