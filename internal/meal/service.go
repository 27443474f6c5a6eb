package meal

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/food"
)

// FoodLookup resolves food codes to their catalog projection in one call.
// Unknown codes are absent from the result.
type FoodLookup interface {
	GetManyByCodes(ctx context.Context, codes []string) (map[string]food.Summary, error)
}

// Service provides meal operations. Every operation is scoped by user ID.
type Service struct {
	repo  Repository
	foods FoodLookup
}

// NewService creates a new meal service.
func NewService(repo Repository, foods FoodLookup) *Service {
	return &Service{repo: repo, foods: foods}
}

// GetByDate returns the user's meals on date keyed by meal type, enriched
// with current catalog data. Returns ErrMealNotFound when nothing was logged.
func (s *Service) GetByDate(ctx context.Context, userID, date string) (models.MealsByType, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, models.NewValidationError(models.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}

	meals, err := s.repo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, ErrMealNotFound
	}

	catalog, err := s.foods.GetManyByCodes(ctx, referencedCodes(meals...))
	if err != nil {
		return nil, err
	}

	result := make(models.MealsByType, len(meals))
	for _, m := range meals {
		result[string(m.Type)] = Enrich(m, catalog)
	}
	return result, nil
}

// Create logs a new meal for the user and returns it enriched.
// A second meal with the same date and type surfaces as ErrMealExists.
func (s *Service) Create(ctx context.Context, userID string, input *models.MealCreateRequest) (*models.Meal, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &models.ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	m := &Meal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Date:      input.Date,
		Type:      Type(input.Type),
		FoodItems: make([]FoodReference, 0, len(input.FoodItems)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, in := range input.FoodItems {
		m.FoodItems = append(m.FoodItems, newReference(in))
	}

	// Resolve the catalog first so a failed lookup leaves nothing stored.
	catalog, err := s.foods.GetManyByCodes(ctx, referencedCodes(m))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	result := Enrich(m, catalog)
	return &result, nil
}

// GetOne retrieves the raw meal used as the target of a mutation.
// A meal owned by someone else is reported as not found.
func (s *Service) GetOne(ctx context.Context, userID, mealID string) (*Meal, error) {
	if _, err := uuid.Parse(mealID); err != nil {
		return nil, &models.ValidationError{
			Err:    ErrInvalidMealID,
			Errors: []models.FieldError{{Field: "id", Message: "invalid meal id"}},
		}
	}
	return s.repo.GetByUserAndID(ctx, userID, mealID)
}

// AddFoodItem appends a food reference to the meal and returns its id.
func (s *Service) AddFoodItem(ctx context.Context, m *Meal, input *models.FoodReferenceInput) (string, error) {
	if fieldErrors := validateReference("", input.Code, input.Weight, input.Unit); len(fieldErrors) > 0 {
		return "", &models.ValidationError{Errors: fieldErrors}
	}

	ref := newReference(*input)
	if err := s.save(ctx, m, withReference(m.FoodItems, ref)); err != nil {
		return "", err
	}
	return ref.ID, nil
}

// UpdateFoodItem changes the weight and unit of a food reference. Unknown
// reference ids are ignored.
func (s *Service) UpdateFoodItem(ctx context.Context, m *Meal, input *models.FoodReferenceUpdate) error {
	var fieldErrors []models.FieldError
	if input.ID == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "id", Message: "is required"})
	}
	fieldErrors = append(fieldErrors, validateAmount("", input.Weight, input.Unit)...)
	if len(fieldErrors) > 0 {
		return &models.ValidationError{Errors: fieldErrors}
	}

	return s.save(ctx, m, withUpdatedReference(m.FoodItems, input.ID, input.Weight, unitOrDefault(input.Unit)))
}

// RemoveFoodItem removes a food reference from the meal. Unknown reference
// ids are ignored.
func (s *Service) RemoveFoodItem(ctx context.Context, m *Meal, refID string) error {
	return s.save(ctx, m, withoutReference(m.FoodItems, refID))
}

// Delete deletes the meal.
func (s *Service) Delete(ctx context.Context, m *Meal) error {
	return s.repo.Delete(ctx, m.ID)
}

// DeleteAllForUser deletes every meal owned by userID.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

// save persists next as the meal's food references if it differs from the
// loaded list. On success m reflects the stored state.
func (s *Service) save(ctx context.Context, m *Meal, next []FoodReference) error {
	if slices.Equal(m.FoodItems, next) {
		return nil
	}

	candidate := *m
	candidate.FoodItems = next
	candidate.UpdatedAt = time.Now()
	if err := s.repo.UpdateFoodItems(ctx, &candidate); err != nil {
		return err
	}
	*m = candidate
	return nil
}

func newReference(in models.FoodReferenceInput) FoodReference {
	return FoodReference{
		ID:     uuid.New().String(),
		Code:   in.Code,
		Weight: in.Weight,
		Unit:   unitOrDefault(in.Unit),
	}
}

func unitOrDefault(unit string) Unit {
	if unit == "" {
		return UnitGram
	}
	return Unit(unit)
}

// validateCreateInput validates the create meal input.
func validateCreateInput(input *models.MealCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if _, err := time.Parse(DateLayout, input.Date); err != nil {
		errs = append(errs, models.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}

	if input.Type == "" {
		errs = append(errs, models.FieldError{Field: "type", Message: "is required"})
	} else if !Type(input.Type).Valid() {
		errs = append(errs, models.FieldError{
			Field:   "type",
			Message: "must be one of breakfast, lunch, dinner, snack1, snack2, snack3",
		})
	}

	for i, in := range input.FoodItems {
		prefix := "foodItems[" + strconv.Itoa(i) + "]."
		errs = append(errs, validateReference(prefix, in.Code, in.Weight, in.Unit)...)
	}

	return errs
}

// validateReference checks the fields of a food reference. The code format
// is checked but not its presence in the catalog.
func validateReference(prefix, code string, weight float64, unit string) []models.FieldError {
	var errs []models.FieldError
	if !food.ValidCode(code) {
		errs = append(errs, models.FieldError{Field: prefix + "code", Message: "must be an 8, 11 or 13 digit product code"})
	}
	return append(errs, validateAmount(prefix, weight, unit)...)
}

func validateAmount(prefix string, weight float64, unit string) []models.FieldError {
	var errs []models.FieldError
	if weight <= 0 {
		errs = append(errs, models.FieldError{Field: prefix + "weight", Message: "must be greater than 0"})
	}
	if !unitOrDefault(unit).Valid() {
		errs = append(errs, models.FieldError{Field: prefix + "unit", Message: "must be one of " + strings.Join(supportedUnits(), ", ")})
	}
	return errs
}

func supportedUnits() []string {
	return []string{string(UnitGram)}
}
