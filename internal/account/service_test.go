package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/account"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/meal"
	"github.com/nutrilog/nutrilog/internal/profile"
)

func float(v float64) *float64 { return &v }
func integer(v int) *int       { return &v }

type fixture struct {
	meals    *meal.Service
	profiles *profile.Service
	account  *account.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	foods := food.NewService(food.NewInMemoryRepository())
	meals := meal.NewService(meal.NewInMemoryRepository(), foods)
	profiles := profile.NewService(profile.NewInMemoryRepository())
	return &fixture{
		meals:    meals,
		profiles: profiles,
		account:  account.NewService(meals, profiles, zerolog.Nop()),
	}
}

func (f *fixture) seed(t *testing.T, userID string, withProfile bool) {
	t.Helper()
	ctx := context.Background()
	for _, typ := range []string{"breakfast", "lunch"} {
		_, err := f.meals.Create(ctx, userID, &models.MealCreateRequest{Date: "2025-01-01", Type: typ})
		require.NoError(t, err)
	}
	if !withProfile {
		return
	}
	_, err := f.profiles.Create(ctx, &models.ProfileInput{
		Gender:        "m",
		CurrentWeight: float(80),
		TargetWeight:  float(75),
		Height:        float(180),
		WeeklyChange:  float(0.5),
		ActivityLevel: "light",
		Age:           integer(40),
		EffectiveDate: "2025-01-01",
	}, userID)
	require.NoError(t, err)
}

func TestService_DeleteAllData(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed(t, "u1", true)
	f.seed(t, "u2", true)

	require.NoError(t, f.account.DeleteAllData(ctx, "u1"))

	_, err := f.meals.GetByDate(ctx, "u1", "2025-01-01")
	assert.ErrorIs(t, err, meal.ErrMealNotFound)
	_, err = f.profiles.FindOne(ctx, "u1")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	// Other users keep their data.
	meals, err := f.meals.GetByDate(ctx, "u2", "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, meals, 2)
	_, err = f.profiles.FindOne(ctx, "u2")
	assert.NoError(t, err)
}

func TestService_DeleteAllData_WithoutProfile(t *testing.T) {
	f := setup(t)
	f.seed(t, "u1", false)

	assert.NoError(t, f.account.DeleteAllData(context.Background(), "u1"))
}

type failingMeals struct{}

func (failingMeals) DeleteAllForUser(context.Context, string) (int64, error) {
	return 0, errors.New("storage unavailable")
}

type recordingProfiles struct{ called bool }

func (r *recordingProfiles) DeleteForUser(context.Context, string) error {
	r.called = true
	return nil
}

func TestService_DeleteAllData_MealFailureKeepsProfile(t *testing.T) {
	profiles := &recordingProfiles{}
	svc := account.NewService(failingMeals{}, profiles, zerolog.Nop())

	err := svc.DeleteAllData(context.Background(), "u1")

	assert.Error(t, err)
	assert.False(t, profiles.called)
}
