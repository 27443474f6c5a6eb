package meal

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It enforces the same (user, date, type) uniqueness as the database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	meals map[string]*Meal
}

// NewInMemoryRepository creates a new in-memory meal repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		meals: make(map[string]*Meal),
	}
}

// ListByDate returns every meal userID logged on date.
func (r *InMemoryRepository) ListByDate(_ context.Context, userID, date string) ([]*Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meals := []*Meal{}
	for _, m := range r.meals {
		if m.UserID == userID && m.Date == date {
			meals = append(meals, m.clone())
		}
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].Type < meals[j].Type })
	return meals, nil
}

// GetByUserAndID retrieves a meal owned by userID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, mealID string) (*Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.meals[mealID]
	if !ok || m.UserID != userID {
		return nil, ErrMealNotFound
	}
	return m.clone(), nil
}

// Create inserts a new meal.
func (r *InMemoryRepository) Create(_ context.Context, meal *Meal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.meals {
		if m.UserID == meal.UserID && m.Date == meal.Date && m.Type == meal.Type {
			return ErrMealExists
		}
	}
	r.meals[meal.ID] = meal.clone()
	return nil
}

// UpdateFoodItems replaces the stored food references of a meal.
func (r *InMemoryRepository) UpdateFoodItems(_ context.Context, meal *Meal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meals[meal.ID]
	if !ok || m.UserID != meal.UserID {
		return ErrMealNotFound
	}
	m.FoodItems = append([]FoodReference{}, meal.FoodItems...)
	m.UpdatedAt = meal.UpdatedAt
	return nil
}

// Delete deletes a meal by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.meals, id)
	return nil
}

// DeleteByUser deletes every meal owned by userID.
func (r *InMemoryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, m := range r.meals {
		if m.UserID == userID {
			delete(r.meals, id)
			n++
		}
	}
	return n, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
