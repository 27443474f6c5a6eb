package meal

import "context"

// Repository defines the interface for meal persistence.
type Repository interface {
	// ListByDate returns every meal userID logged on date.
	ListByDate(ctx context.Context, userID, date string) ([]*Meal, error)

	// GetByUserAndID retrieves a meal by ID.
	// Returns ErrMealNotFound if the meal doesn't exist or doesn't belong to the user.
	GetByUserAndID(ctx context.Context, userID, mealID string) (*Meal, error)

	// Create inserts a new meal.
	// Returns ErrMealExists if the user already has a meal of that type on that date.
	Create(ctx context.Context, meal *Meal) error

	// UpdateFoodItems replaces the stored food references of a meal.
	UpdateFoodItems(ctx context.Context, meal *Meal) error

	// Delete deletes a meal by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByUser deletes every meal owned by userID and returns the count.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
