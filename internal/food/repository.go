package food

import "context"

// ListOptions contains options for listing food items.
type ListOptions struct {
	Offset int
	Limit  int

	// Query filters by a case-insensitive substring of name or brand.
	// Empty matches everything.
	Query string
}

// ListResult contains one page of food items and the total match count.
type ListResult struct {
	Items []*FoodItem
	Total int64
}

// Repository defines the interface for food item persistence.
type Repository interface {
	// List returns items matching opts.Query sorted by name, byte-wise.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// GetByCode retrieves a food item by code.
	GetByCode(ctx context.Context, code string) (*FoodItem, error)

	// GetManyByCodes retrieves every item whose code is in codes. Unknown
	// codes are skipped.
	GetManyByCodes(ctx context.Context, codes []string) ([]*FoodItem, error)

	// Create inserts a new item. Returns ErrFoodItemExists if the code is taken.
	Create(ctx context.Context, item *FoodItem) error

	// Upsert inserts or replaces items by code and returns how many were written.
	// The creator of an existing item is preserved.
	Upsert(ctx context.Context, items []*FoodItem) (int, error)

	// DeleteOwned deletes the item with code created by ownerID.
	// Returns ErrFoodItemNotFound if no such item exists.
	DeleteOwned(ctx context.Context, code, ownerID string) error
}
