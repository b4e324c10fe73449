package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"inventory-sync-service/app/domain"
)

// memoryStore is an in-process record store with the same contract as the
// Postgres repository.
type memoryStore struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	nextID   int64
	err      error
}

func newMemoryStore(products ...domain.Product) *memoryStore {
	s := &memoryStore{products: make(map[int64]domain.Product), nextID: 1}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

func (s *memoryStore) GetByID(_ context.Context, id int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Product{}, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) UpdateStock(_ context.Context, id, stock int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Product{}, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return p, nil
}

func (s *memoryStore) Create(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	product.ID = s.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	s.nextID++
	s.products[product.ID] = *product
	return nil
}

func (s *memoryStore) List(context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishStockChange(_ context.Context, ev domain.ChangeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

var errTransport = errors.New("transport error")

func int64Ptr(v int64) *int64 {
	return &v
}
