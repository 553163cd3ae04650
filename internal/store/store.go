// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// Store errors.
var (
	ErrNotFound    = errors.New("item not found")
	ErrPersistence = errors.New("persisting items failed")
)

// Store defines the interface for item storage operations.
type Store interface {
	// List returns all items in insertion order.
	List(ctx context.Context) ([]model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int) (*model.Item, error)

	// Create validates the input, assigns the next ID and appends the item.
	Create(ctx context.Context, in model.ItemInput) (*model.Item, error)

	// Update replaces the fields present in the input on an existing item.
	Update(ctx context.Context, id int, in model.ItemInput) (*model.Item, error)

	// Delete removes an item by its ID and returns it.
	Delete(ctx context.Context, id int) (*model.Item, error)
}
