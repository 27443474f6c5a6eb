package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrilog/nutrilog/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// History is stored as a JSONB array, newest entry first.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

type storedEntry struct {
	EffectiveDate string  `json:"effectiveDate"`
	CurrentWeight float64 `json:"currentWeight"`
	Age           int     `json:"age"`
	Height        float64 `json:"height"`
}

// GetByUserID retrieves the profile owned by userID.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT id, user_id, gender, current_weight, target_weight, height,
		       weekly_change, activity_level, history, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var (
		p        Profile
		gender   string
		activity string
		history  []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &gender, &p.CurrentWeight, &p.TargetWeight, &p.Height,
		&p.WeeklyChange, &activity, &history, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	p.Gender = Gender(gender)
	p.ActivityLevel = ActivityLevel(activity)

	var stored []storedEntry
	if len(history) > 0 {
		if err := json.Unmarshal(history, &stored); err != nil {
			return nil, fmt.Errorf("decode history of profile %s: %w", p.ID, err)
		}
	}
	p.History = make([]HistoryEntry, 0, len(stored))
	for _, s := range stored {
		p.History = append(p.History, HistoryEntry(s))
	}
	return &p, nil
}

// Create inserts a profile. The unique constraint on user_id decides
// concurrent creates.
func (r *PostgresRepository) Create(ctx context.Context, profile *Profile) error {
	history, err := encodeHistory(profile.History)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (id, user_id, gender, current_weight, target_weight, height,
		                      weekly_change, activity_level, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		profile.ID, profile.UserID, string(profile.Gender), profile.CurrentWeight,
		profile.TargetWeight, profile.Height, profile.WeeklyChange,
		string(profile.ActivityLevel), history, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// Update replaces the stored scalars and history of a profile.
func (r *PostgresRepository) Update(ctx context.Context, profile *Profile) error {
	history, err := encodeHistory(profile.History)
	if err != nil {
		return err
	}

	query := `
		UPDATE profiles SET
			gender = $3, current_weight = $4, target_weight = $5, height = $6,
			weekly_change = $7, activity_level = $8, history = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		profile.ID, profile.UserID, string(profile.Gender), profile.CurrentWeight,
		profile.TargetWeight, profile.Height, profile.WeeklyChange,
		string(profile.ActivityLevel), history, profile.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Delete deletes a profile by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return err
}

func encodeHistory(history []HistoryEntry) ([]byte, error) {
	stored := make([]storedEntry, 0, len(history))
	for _, e := range history {
		stored = append(stored, storedEntry(e))
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode profile history: %w", err)
	}
	return data, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
