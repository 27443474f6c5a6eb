package food

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs tests and the memory storage driver.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*FoodItem
}

// NewInMemoryRepository creates a new in-memory food repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*FoodItem),
	}
}

// List returns items matching opts.Query sorted by name.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(opts.Query)
	var matched []*FoodItem
	for _, item := range r.items {
		if query == "" ||
			strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.Brand), query) {
			matched = append(matched, item)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].Code < matched[j].Code
	})

	result := &ListResult{Total: int64(len(matched)), Items: []*FoodItem{}}
	if opts.Offset >= len(matched) {
		return result, nil
	}
	end := len(matched)
	if opts.Limit > 0 && opts.Offset+opts.Limit < end {
		end = opts.Offset + opts.Limit
	}
	for _, item := range matched[opts.Offset:end] {
		result.Items = append(result.Items, item.clone())
	}
	return result, nil
}

// GetByCode retrieves a food item by code.
func (r *InMemoryRepository) GetByCode(_ context.Context, code string) (*FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[code]
	if !ok {
		return nil, ErrFoodItemNotFound
	}
	return item.clone(), nil
}

// GetManyByCodes retrieves every known item in codes.
func (r *InMemoryRepository) GetManyByCodes(_ context.Context, codes []string) ([]*FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*FoodItem, 0, len(codes))
	for _, code := range codes {
		if item, ok := r.items[code]; ok {
			items = append(items, item.clone())
		}
	}
	return items, nil
}

// Create inserts a new item.
func (r *InMemoryRepository) Create(_ context.Context, item *FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.Code]; ok {
		return ErrFoodItemExists
	}
	r.items[item.Code] = item.clone()
	return nil
}

// Upsert inserts or replaces items by code.
func (r *InMemoryRepository) Upsert(_ context.Context, items []*FoodItem) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, item := range items {
		cpy := item.clone()
		if existing, ok := r.items[item.Code]; ok {
			cpy.CreatedBy = existing.CreatedBy
			cpy.CreatedAt = existing.CreatedAt
		}
		cpy.UpdatedAt = now
		r.items[item.Code] = cpy
	}
	return len(items), nil
}

// DeleteOwned deletes the item with code created by ownerID.
func (r *InMemoryRepository) DeleteOwned(_ context.Context, code, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[code]
	if !ok || item.CreatedBy == "" || item.CreatedBy != ownerID {
		return ErrFoodItemNotFound
	}
	delete(r.items, code)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
