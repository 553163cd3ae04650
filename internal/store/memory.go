package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu   sync.RWMutex
	data collection
}

// NewMemoryStore creates a new MemoryStore holding a copy of the given items.
func NewMemoryStore(items ...model.Item) *MemoryStore {
	return &MemoryStore{
		data: newCollection(items, 0),
	}
}

// List returns all items in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.snapshot(), nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := s.data.get(id)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// Create validates the input, assigns the next ID and appends the item.
func (s *MemoryStore) Create(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, item, err := s.data.create(in)
	if err != nil {
		return nil, err
	}
	s.data = next

	return &item, nil
}

// Update replaces the fields present in the input on an existing item.
func (s *MemoryStore) Update(ctx context.Context, id int, in model.ItemInput) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, item, err := s.data.update(id, in)
	if err != nil {
		return nil, err
	}
	s.data = next

	return &item, nil
}

// Delete removes an item by its ID and returns it.
func (s *MemoryStore) Delete(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, item, err := s.data.remove(id)
	if err != nil {
		return nil, err
	}
	s.data = next

	return &item, nil
}
