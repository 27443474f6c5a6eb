package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/database"
	"github.com/nutrilog/nutrilog/internal/profile"
)

// countingRepository records how often Update reaches storage.
type countingRepository struct {
	*profile.InMemoryRepository
	updates int
}

func (r *countingRepository) Update(ctx context.Context, p *profile.Profile) error {
	r.updates++
	return r.InMemoryRepository.Update(ctx, p)
}

func float(v float64) *float64 { return &v }
func integer(v int) *int       { return &v }

func validInput(date string, weight float64) *models.ProfileInput {
	return &models.ProfileInput{
		Gender:        "f",
		CurrentWeight: float(weight),
		TargetWeight:  float(55),
		Height:        float(163),
		WeeklyChange:  float(0.5),
		ActivityLevel: "moderate",
		Age:           integer(36),
		EffectiveDate: date,
	}
}

func setupService(t *testing.T) (*profile.Service, *countingRepository) {
	t.Helper()
	repo := &countingRepository{InMemoryRepository: profile.NewInMemoryRepository()}
	return profile.NewService(repo), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, profile.GenderFemale, p.Gender)
	assert.Equal(t, profile.ActivityModerate, p.ActivityLevel)
	require.Len(t, p.History, 1)
	assert.Equal(t, profile.HistoryEntry{EffectiveDate: "2025-05-01", CurrentWeight: 60, Age: 36, Height: 163}, p.History[0])
}

func TestService_Create_Conflict(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("2025-05-02", 61), "u1")
	assert.ErrorIs(t, err, profile.ErrProfileExists)
	assert.ErrorIs(t, err, database.ErrConflict)

	// A different user is unaffected.
	_, err = svc.Create(ctx, validInput("2025-05-02", 61), "u2")
	assert.NoError(t, err)
}

func TestService_Create_DefaultsEffectiveDate(t *testing.T) {
	// A zone far from UTC makes the local and UTC dates differ for most of the day.
	local := time.Local
	time.Local = time.FixedZone("UTC+14", 14*60*60)
	t.Cleanup(func() { time.Local = local })

	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("", 60), "u1")
	require.NoError(t, err)

	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format(profile.DateLayout), p.History[0].EffectiveDate)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *models.ProfileInput)
		field  string
	}{
		{"missing gender", func(in *models.ProfileInput) { in.Gender = "" }, "gender"},
		{"unknown gender", func(in *models.ProfileInput) { in.Gender = "x" }, "gender"},
		{"unknown activity", func(in *models.ProfileInput) { in.ActivityLevel = "lazy" }, "activityLevel"},
		{"target weight below 40", func(in *models.ProfileInput) { in.TargetWeight = float(39) }, "targetWeight"},
		{"missing current weight", func(in *models.ProfileInput) { in.CurrentWeight = nil }, "currentWeight"},
		{"zero height", func(in *models.ProfileInput) { in.Height = float(0) }, "height"},
		{"weekly change above 1", func(in *models.ProfileInput) { in.WeeklyChange = float(1.5) }, "weeklyChange"},
		{"negative weekly change", func(in *models.ProfileInput) { in.WeeklyChange = float(-0.1) }, "weeklyChange"},
		{"missing age", func(in *models.ProfileInput) { in.Age = nil }, "age"},
		{"malformed effective date", func(in *models.ProfileInput) { in.EffectiveDate = "01/05/2025" }, "effectiveDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupService(t)
			in := validInput("2025-05-01", 60)
			tt.modify(in)

			_, err := svc.Create(context.Background(), in, "u1")

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			require.NotEmpty(t, verr.Errors)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestService_FindOne_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.FindOne(context.Background(), "nobody")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestService_Update_HistoryScenario(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)
	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, p, validInput("2025-05-02", 58)))
	require.Len(t, p.History, 2)
	assert.Equal(t, 58.0, p.History[0].CurrentWeight)
	assert.Equal(t, 58.0, p.CurrentWeight)

	require.NoError(t, svc.Update(ctx, p, validInput("2025-05-02", 57)))
	require.Len(t, p.History, 2)
	assert.Equal(t, 57.0, p.History[0].CurrentWeight)

	err = svc.Update(ctx, p, validInput("2025-04-30", 59))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, profile.ErrBackdatedHistory)
	assert.Equal(t, "effectiveDate", verr.Errors[0].Field)

	stored, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, 57.0, stored.History[0].CurrentWeight)
	assert.Equal(t, 60.0, stored.History[1].CurrentWeight)
	assert.Equal(t, 57.0, stored.CurrentWeight)
}

func TestService_Update_NoChangeSkipsWrite(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)
	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, p, validInput("2025-05-01", 60)))
	assert.Equal(t, 0, repo.updates)

	in := validInput("2025-05-01", 60)
	in.TargetWeight = float(50)
	require.NoError(t, svc.Update(ctx, p, in))
	assert.Equal(t, 1, repo.updates)
	assert.Len(t, p.History, 1)
	assert.Equal(t, 50.0, p.TargetWeight)
}

func TestService_Update_InvalidLeavesProfileUnchanged(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)
	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)

	in := validInput("2025-05-03", 58)
	in.Gender = "unknown"
	err = svc.Update(ctx, p, in)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, repo.updates)
	assert.Equal(t, profile.GenderFemale, p.Gender)
	assert.Len(t, p.History, 1)
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("2025-05-01", 60), "u1")
	require.NoError(t, err)
	p, err := svc.FindOne(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p))

	_, err = svc.FindOne(ctx, "u1")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	// The user may create a new profile afterwards.
	_, err = svc.Create(ctx, validInput("2025-06-01", 59), "u1")
	assert.NoError(t, err)
}

func TestService_DeleteForUser_Missing(t *testing.T) {
	svc, _ := setupService(t)

	assert.NoError(t, svc.DeleteForUser(context.Background(), "nobody"))
}

func TestToAPIProfile(t *testing.T) {
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	p := &profile.Profile{
		ID:            "p1",
		UserID:        "u1",
		Gender:        profile.GenderMale,
		CurrentWeight: 80,
		TargetWeight:  75,
		Height:        180,
		WeeklyChange:  0.25,
		ActivityLevel: profile.ActivityLight,
		History:       []profile.HistoryEntry{{EffectiveDate: "2025-05-01", CurrentWeight: 80, Age: 40, Height: 180}},
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	got := profile.ToAPIProfile(p)

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "m", got.Gender)
	assert.Equal(t, "light", got.ActivityLevel)
	require.Len(t, got.History, 1)
	assert.Equal(t, 40, got.History[0].Age)
	assert.Equal(t, created, got.CreatedAt.Time())
}
