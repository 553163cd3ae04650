package store

import (
	"slices"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// collection is an ordered set of items plus the last ID handed out.
// Mutating methods never touch the receiver's backing array; they return a
// new collection that the caller installs once it is safe to do so.
type collection struct {
	items  []model.Item
	lastID int
}

func newCollection(items []model.Item, lastID int) collection {
	for _, item := range items {
		lastID = max(lastID, item.ID)
	}
	return collection{
		items:  slices.Clone(items),
		lastID: lastID,
	}
}

// snapshot returns a copy of the items that callers may keep.
func (c collection) snapshot() []model.Item {
	out := make([]model.Item, len(c.items))
	copy(out, c.items)
	return out
}

// index returns the position of the first item with the given ID, or -1.
func (c collection) index(id int) int {
	return slices.IndexFunc(c.items, func(item model.Item) bool {
		return item.ID == id
	})
}

func (c collection) get(id int) (model.Item, error) {
	i := c.index(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	return c.items[i], nil
}

func (c collection) create(in model.ItemInput) (collection, model.Item, error) {
	item, err := in.NewItem()
	if err != nil {
		return c, model.Item{}, err
	}

	item.ID = c.lastID + 1

	next := collection{
		items:  append(c.snapshot(), item),
		lastID: item.ID,
	}
	return next, item, nil
}

func (c collection) update(id int, in model.ItemInput) (collection, model.Item, error) {
	i := c.index(id)
	if i < 0 {
		return c, model.Item{}, ErrNotFound
	}

	updated, err := in.Apply(c.items[i])
	if err != nil {
		return c, model.Item{}, err
	}

	items := c.snapshot()
	items[i] = updated

	return collection{items: items, lastID: c.lastID}, updated, nil
}

func (c collection) remove(id int) (collection, model.Item, error) {
	i := c.index(id)
	if i < 0 {
		return c, model.Item{}, ErrNotFound
	}

	removed := c.items[i]
	items := slices.Delete(c.snapshot(), i, i+1)

	return collection{items: items, lastID: c.lastID}, removed, nil
}
