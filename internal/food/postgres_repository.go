package food

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrilog/nutrilog/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL food repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectColumns = `
	code, name, brand, category, image, kcal_100g,
	fat, saturated_fat, carbohydrates, sugars, protein, salt, fiber,
	created_by, created_at, updated_at
`

// storedImages is the JSONB shape of the image column.
type storedImages struct {
	Small storedImage `json:"sm"`
	Large storedImage `json:"lg"`
}

type storedImage struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// List returns items matching opts.Query sorted by name.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	pattern := "%" + escapeLike(opts.Query) + "%"

	var total int64
	countQuery := `
		SELECT count(*)
		FROM food_items
		WHERE $1 = '' OR name ILIKE $2 OR brand ILIKE $2
	`
	if err := r.pool.QueryRow(ctx, countQuery, opts.Query, pattern).Scan(&total); err != nil {
		return nil, fmt.Errorf("count food items: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = int(total)
	}

	query := `SELECT ` + selectColumns + `
		FROM food_items
		WHERE $1 = '' OR name ILIKE $2 OR brand ILIKE $2
		ORDER BY name COLLATE "C", code
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, opts.Query, pattern, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult{Items: items, Total: total}, nil
}

// GetByCode retrieves a food item by code.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*FoodItem, error) {
	query := `SELECT ` + selectColumns + ` FROM food_items WHERE code = $1`

	item, err := scanItem(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// GetManyByCodes retrieves every known item in codes with a single query.
func (r *PostgresRepository) GetManyByCodes(ctx context.Context, codes []string) ([]*FoodItem, error) {
	if len(codes) == 0 {
		return []*FoodItem{}, nil
	}

	query := `SELECT ` + selectColumns + ` FROM food_items WHERE code = ANY($1)`
	rows, err := r.pool.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("get food items by codes: %w", err)
	}
	return scanItems(rows)
}

// Create inserts a new item.
func (r *PostgresRepository) Create(ctx context.Context, item *FoodItem) error {
	image, err := json.Marshal(toStoredImages(item.Image))
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	query := `
		INSERT INTO food_items (
			code, name, brand, category, image, kcal_100g,
			fat, saturated_fat, carbohydrates, sugars, protein, salt, fiber,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.pool.Exec(ctx, query,
		item.Code, item.Name, item.Brand, categoryOrEmpty(item.Category), image, item.Kcal,
		item.Macros.Fat, item.Macros.SaturatedFat, item.Macros.Carbohydrates,
		item.Macros.Sugars, item.Macros.Protein, item.Macros.Salt, item.Macros.Fiber,
		item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrFoodItemExists
		}
		return err
	}
	return nil
}

// Upsert inserts or replaces items by code in one batch. The batch runs in
// a transaction, so on error nothing is written and the count is zero.
func (r *PostgresRepository) Upsert(ctx context.Context, items []*FoodItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO food_items (
			code, name, brand, category, image, kcal_100g,
			fat, saturated_fat, carbohydrates, sugars, protein, salt, fiber
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			kcal_100g = EXCLUDED.kcal_100g,
			fat = EXCLUDED.fat,
			saturated_fat = EXCLUDED.saturated_fat,
			carbohydrates = EXCLUDED.carbohydrates,
			sugars = EXCLUDED.sugars,
			protein = EXCLUDED.protein,
			salt = EXCLUDED.salt,
			fiber = EXCLUDED.fiber,
			updated_at = now()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	batch := &pgx.Batch{}
	for _, item := range items {
		image, err := json.Marshal(toStoredImages(item.Image))
		if err != nil {
			return 0, fmt.Errorf("encode image for %s: %w", item.Code, err)
		}
		batch.Queue(query,
			item.Code, item.Name, item.Brand, categoryOrEmpty(item.Category), image, item.Kcal,
			item.Macros.Fat, item.Macros.SaturatedFat, item.Macros.Carbohydrates,
			item.Macros.Sugars, item.Macros.Protein, item.Macros.Salt, item.Macros.Fiber,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, item := range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("upsert food item %s: %w", item.Code, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(items), nil
}

// DeleteOwned deletes the item with code created by ownerID.
func (r *PostgresRepository) DeleteOwned(ctx context.Context, code, ownerID string) error {
	query := `DELETE FROM food_items WHERE code = $1 AND created_by = $2 AND created_by <> ''`

	result, err := r.pool.Exec(ctx, query, code, ownerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFoodItemNotFound
	}
	return nil
}

func scanItems(rows pgx.Rows) ([]*FoodItem, error) {
	defer rows.Close()

	items := []*FoodItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanItem(row pgx.Row) (*FoodItem, error) {
	var (
		item  FoodItem
		image []byte
	)
	err := row.Scan(
		&item.Code,
		&item.Name,
		&item.Brand,
		&item.Category,
		&image,
		&item.Kcal,
		&item.Macros.Fat,
		&item.Macros.SaturatedFat,
		&item.Macros.Carbohydrates,
		&item.Macros.Sugars,
		&item.Macros.Protein,
		&item.Macros.Salt,
		&item.Macros.Fiber,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var stored storedImages
	if len(image) > 0 {
		if err := json.Unmarshal(image, &stored); err != nil {
			return nil, fmt.Errorf("decode image for %s: %w", item.Code, err)
		}
	}
	item.Image = Images{
		Small: Image{URL: stored.Small.URL, Alt: stored.Small.Alt},
		Large: Image{URL: stored.Large.URL, Alt: stored.Large.Alt},
	}
	return &item, nil
}

func toStoredImages(img Images) storedImages {
	return storedImages{
		Small: storedImage{URL: img.Small.URL, Alt: img.Small.Alt},
		Large: storedImage{URL: img.Large.URL, Alt: img.Large.Alt},
	}
}

func categoryOrEmpty(category []string) []string {
	if category == nil {
		return []string{}
	}
	return category
}

// escapeLike escapes LIKE metacharacters so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
