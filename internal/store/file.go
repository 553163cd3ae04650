package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// FileStore implements Store with an in-memory copy of the collection that
// is written through to a JSON file on every mutation.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	data collection
}

// OpenFileStore loads the items file at path once and returns a store backed
// by it. A missing or unparsable file starts an empty collection.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("open file store: path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}

	items, err := ReadItems(path)
	if err != nil {
		logger.Warn("items file unreadable, starting with an empty collection",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	lastID, err := readMeta(path)
	if err != nil {
		logger.Warn("id counter unreadable, deriving it from items",
			zap.String("path", path+metaSuffix),
			zap.Error(err),
		)
	}

	s := &FileStore{
		path:   path,
		logger: logger,
		data:   newCollection(items, lastID),
	}
	storeItems.Set(float64(len(s.data.items)))

	logger.Info("file store opened",
		zap.String("path", path),
		zap.Int("items", len(s.data.items)),
		zap.Int("last_id", s.data.lastID),
	)

	return s, nil
}

// Path returns the location of the items file.
func (s *FileStore) Path() string {
	return s.path
}

// List returns all items in insertion order.
func (s *FileStore) List(ctx context.Context) ([]model.Item, error) {
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
func (s *FileStore) Get(ctx context.Context, id int) (*model.Item, error) {
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

// Create validates the input, assigns the next ID, appends the item and
// persists the collection.
func (s *FileStore) Create(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	return s.mutate(func(c collection) (collection, model.Item, error) {
		return c.create(in)
	})
}

// Update replaces the fields present in the input on an existing item and
// persists the collection.
func (s *FileStore) Update(ctx context.Context, id int, in model.ItemInput) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	return s.mutate(func(c collection) (collection, model.Item, error) {
		return c.update(id, in)
	})
}

// Delete removes an item by its ID, persists the collection and returns the
// removed item.
func (s *FileStore) Delete(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	return s.mutate(func(c collection) (collection, model.Item, error) {
		return c.remove(id)
	})
}

// mutate applies op under the write lock. The new collection replaces the
// in-memory copy only after it has been written to disk.
func (s *FileStore) mutate(op func(collection) (collection, model.Item, error)) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, item, err := op(s.data)
	if err != nil {
		return nil, err
	}

	if err := s.persist(next); err != nil {
		storeWritesTotal.WithLabelValues("error").Inc()
		s.logger.Error("failed to persist items",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, err
	}
	storeWritesTotal.WithLabelValues("ok").Inc()

	s.data = next
	storeItems.Set(float64(len(next.items)))

	return &item, nil
}

// persist writes the ID counter before the items so a crash between the two
// writes can only skip IDs, never reuse them.
func (s *FileStore) persist(c collection) error {
	if err := writeMeta(s.path, c.lastID); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := Save(s.path, c.items); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
