package meal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrilog/nutrilog/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Food references are stored as a JSONB array on the meal row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL meal repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// storedReference is the JSONB shape of one food reference.
type storedReference struct {
	ID     string  `json:"id"`
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"`
}

// ListByDate returns every meal userID logged on date.
func (r *PostgresRepository) ListByDate(ctx context.Context, userID, date string) ([]*Meal, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse meal date: %w", err)
	}

	query := `
		SELECT id, user_id, meal_date, meal_type, food_items, created_at, updated_at
		FROM meals
		WHERE user_id = $1 AND meal_date = $2
		ORDER BY meal_type
	`
	rows, err := r.pool.Query(ctx, query, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []*Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meals, nil
}

// GetByUserAndID retrieves a meal owned by userID in a single query.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, mealID string) (*Meal, error) {
	query := `
		SELECT id, user_id, meal_date, meal_type, food_items, created_at, updated_at
		FROM meals
		WHERE id = $1 AND user_id = $2
	`
	m, err := scanMeal(r.pool.QueryRow(ctx, query, mealID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return m, nil
}

// Create inserts a new meal. The unique constraint on
// (user_id, meal_date, meal_type) decides concurrent duplicates.
func (r *PostgresRepository) Create(ctx context.Context, meal *Meal) error {
	day, err := time.Parse(DateLayout, meal.Date)
	if err != nil {
		return fmt.Errorf("parse meal date: %w", err)
	}
	items, err := encodeReferences(meal.FoodItems)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO meals (id, user_id, meal_date, meal_type, food_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		meal.ID, meal.UserID, day, string(meal.Type), items, meal.CreatedAt, meal.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrMealExists
		}
		return err
	}
	return nil
}

// UpdateFoodItems replaces the stored food references of a meal.
func (r *PostgresRepository) UpdateFoodItems(ctx context.Context, meal *Meal) error {
	items, err := encodeReferences(meal.FoodItems)
	if err != nil {
		return err
	}

	query := `
		UPDATE meals SET food_items = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query, meal.ID, meal.UserID, items, meal.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMealNotFound
	}
	return nil
}

// Delete deletes a meal by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	return err
}

// DeleteByUser deletes every meal owned by userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanMeal(row pgx.Row) (*Meal, error) {
	var (
		m        Meal
		day      time.Time
		mealType string
		items    []byte
	)
	if err := row.Scan(&m.ID, &m.UserID, &day, &mealType, &items, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Date = day.Format(DateLayout)
	m.Type = Type(mealType)

	var stored []storedReference
	if len(items) > 0 {
		if err := json.Unmarshal(items, &stored); err != nil {
			return nil, fmt.Errorf("decode food items of meal %s: %w", m.ID, err)
		}
	}
	m.FoodItems = make([]FoodReference, 0, len(stored))
	for _, s := range stored {
		m.FoodItems = append(m.FoodItems, FoodReference{
			ID:     s.ID,
			Code:   s.Code,
			Weight: s.Weight,
			Unit:   Unit(s.Unit),
		})
	}
	return &m, nil
}

func encodeReferences(refs []FoodReference) ([]byte, error) {
	stored := make([]storedReference, 0, len(refs))
	for _, ref := range refs {
		stored = append(stored, storedReference{
			ID:     ref.ID,
			Code:   ref.Code,
			Weight: ref.Weight,
			Unit:   string(ref.Unit),
		})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode food items: %w", err)
	}
	return data, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
