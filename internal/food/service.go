package food

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nutrilog/nutrilog/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength = 255
	DefaultLimit  = 30
)

// ErrInvalidPagination is wrapped by the ValidationError returned for a
// page or limit below 1, or a page whose offset does not fit in an int.
var ErrInvalidPagination = errors.New("invalid page or limit")

// Service provides food catalog operations.
type Service struct {
	repo Repository
}

// NewService creates a new food service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of the catalog sorted by name.
func (s *Service) List(ctx context.Context, page, limit int) (*models.PagedFoodItems, error) {
	return s.page(ctx, page, limit, "")
}

// Search returns one page of items whose name or brand contains query,
// ignoring case. The query is echoed in the result.
func (s *Service) Search(ctx context.Context, page, limit int, query string) (*models.PagedFoodItems, error) {
	result, err := s.page(ctx, page, limit, query)
	if err != nil {
		return nil, err
	}
	result.Query = &query
	return result, nil
}

func (s *Service) page(ctx context.Context, page, limit int, query string) (*models.PagedFoodItems, error) {
	if page < 1 || limit < 1 || page-1 > math.MaxInt/limit {
		return nil, &models.ValidationError{
			Err:    ErrInvalidPagination,
			Errors: []models.FieldError{{Field: "page", Message: "page and limit must be positive integers"}},
		}
	}

	skip := (page - 1) * limit
	result, err := s.repo.List(ctx, ListOptions{Offset: skip, Limit: limit, Query: query})
	if err != nil {
		return nil, err
	}

	items := make([]models.FoodItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toAPIFoodItem(item))
	}

	paged := &models.PagedFoodItems{
		Items:    items,
		Total:    result.Total,
		Page:     page,
		PageSize: len(items),
	}
	if paged.PageSize > 0 {
		paged.From = skip + 1
		paged.To = skip + paged.PageSize
	}
	return paged, nil
}

// GetByCode retrieves a food item by its product code.
func (s *Service) GetByCode(ctx context.Context, code string) (*models.FoodItem, error) {
	item, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	result := toAPIFoodItem(item)
	return &result, nil
}

// GetManyByCodes returns the display projection of every known code.
// Duplicate codes are looked up once and unknown codes are absent from the map.
func (s *Service) GetManyByCodes(ctx context.Context, codes []string) (map[string]Summary, error) {
	seen := make(map[string]struct{}, len(codes))
	unique := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		unique = append(unique, code)
	}

	summaries := make(map[string]Summary, len(unique))
	if len(unique) == 0 {
		return summaries, nil
	}

	items, err := s.repo.GetManyByCodes(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		summaries[item.Code] = item.Summary()
	}
	return summaries, nil
}

// Create adds a food item owned by ownerID. A duplicate code surfaces as
// ErrFoodItemExists from the repository.
func (s *Service) Create(ctx context.Context, input *models.FoodItemCreateRequest, ownerID string) (*models.FoodItem, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &models.ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	item := fromCreateInput(input)
	item.CreatedBy = ownerID
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	result := toAPIFoodItem(item)
	return &result, nil
}

// DeleteByCode deletes a food item created by ownerID. Items that exist but
// belong to someone else are reported as not found.
func (s *Service) DeleteByCode(ctx context.Context, code, ownerID string) error {
	return s.repo.DeleteOwned(ctx, code, ownerID)
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int
	Rejected []RejectedItem
}

// RejectedItem is an imported item that failed validation.
type RejectedItem struct {
	Code   string
	Reason string
}

// Import validates items and upserts the valid ones by code.
func (s *Service) Import(ctx context.Context, items []models.FoodItem) (*ImportResult, error) {
	result := &ImportResult{}
	valid := make([]*FoodItem, 0, len(items))

	for i := range items {
		input := toCreateInput(&items[i])
		if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
			result.Rejected = append(result.Rejected, RejectedItem{
				Code:   items[i].Code,
				Reason: (&models.ValidationError{Errors: fieldErrors}).Error(),
			})
			continue
		}
		valid = append(valid, fromCreateInput(input))
	}

	written, err := s.repo.Upsert(ctx, valid)
	result.Imported = written
	if err != nil {
		return result, err
	}
	return result, nil
}

// validateCreateInput validates a food item create request.
func validateCreateInput(input *models.FoodItemCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if !ValidCode(input.Code) {
		errs = append(errs, models.FieldError{Field: "code", Message: "must be an 8, 11 or 13 digit product code"})
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 255 characters"})
	}

	errs = requireNonNegative(errs, "kcalPer100g", input.KcalPer100g)
	if input.MacrosPer100g == nil {
		errs = append(errs, models.FieldError{Field: "macrosPer100g", Message: "is required"})
	} else {
		m := input.MacrosPer100g
		errs = requireNonNegative(errs, "macrosPer100g.fat", m.Fat)
		errs = requireNonNegative(errs, "macrosPer100g.saturatedFat", m.SaturatedFat)
		errs = requireNonNegative(errs, "macrosPer100g.carbohydrates", m.Carbohydrates)
		errs = requireNonNegative(errs, "macrosPer100g.sugars", m.Sugars)
		errs = requireNonNegative(errs, "macrosPer100g.protein", m.Protein)
		errs = requireNonNegative(errs, "macrosPer100g.salt", m.Salt)
		errs = requireNonNegative(errs, "macrosPer100g.fiber", m.Fiber)
	}

	if input.Image != nil {
		errs = validateImage(errs, "image.sm", input.Image.Small)
		errs = validateImage(errs, "image.lg", input.Image.Large)
	}

	return errs
}

func requireNonNegative(errs []models.FieldError, field string, value *float64) []models.FieldError {
	if value == nil {
		return append(errs, models.FieldError{Field: field, Message: "is required"})
	}
	if *value < 0 {
		return append(errs, models.FieldError{Field: field, Message: "must not be negative"})
	}
	return errs
}

func validateImage(errs []models.FieldError, field string, img *models.Image) []models.FieldError {
	if img == nil || img.URL == "" {
		return errs
	}
	if !validImageURL(img.URL) {
		errs = append(errs, models.FieldError{Field: field + ".url", Message: "must be an http(s) URL or a data URI"})
	}
	return errs
}

// validImageURL accepts absolute http(s) URLs and data URIs.
func validImageURL(raw string) bool {
	if strings.HasPrefix(raw, "data:") {
		return strings.Contains(raw, ",")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fromCreateInput(input *models.FoodItemCreateRequest) *FoodItem {
	item := &FoodItem{
		Code:     input.Code,
		Name:     strings.TrimSpace(input.Name),
		Brand:    strings.TrimSpace(input.Brand),
		Category: append([]string{}, input.Category...),
		Kcal:     *input.KcalPer100g,
		Macros: Macros{
			Fat:           *input.MacrosPer100g.Fat,
			SaturatedFat:  *input.MacrosPer100g.SaturatedFat,
			Carbohydrates: *input.MacrosPer100g.Carbohydrates,
			Sugars:        *input.MacrosPer100g.Sugars,
			Protein:       *input.MacrosPer100g.Protein,
			Salt:          *input.MacrosPer100g.Salt,
			Fiber:         *input.MacrosPer100g.Fiber,
		},
	}
	if input.Image != nil {
		if input.Image.Small != nil {
			item.Image.Small = Image{URL: input.Image.Small.URL, Alt: input.Image.Small.Alt}
		}
		if input.Image.Large != nil {
			item.Image.Large = Image{URL: input.Image.Large.URL, Alt: input.Image.Large.Alt}
		}
	}
	return item
}

// toCreateInput converts an API food item into the create form so imported
// items go through the same validation as API inserts.
func toCreateInput(item *models.FoodItem) *models.FoodItemCreateRequest {
	m := item.MacrosPer100g
	kcal := item.KcalPer100g
	return &models.FoodItemCreateRequest{
		Code:        item.Code,
		Name:        item.Name,
		Brand:       item.Brand,
		Category:    item.Category,
		Image:       item.Image,
		KcalPer100g: &kcal,
		MacrosPer100g: &models.MacrosInput{
			Fat:           &m.Fat,
			SaturatedFat:  &m.SaturatedFat,
			Carbohydrates: &m.Carbohydrates,
			Sugars:        &m.Sugars,
			Protein:       &m.Protein,
			Salt:          &m.Salt,
			Fiber:         &m.Fiber,
		},
	}
}

// toAPIFoodItem converts a domain FoodItem to an API FoodItem.
// CreatedBy is never exposed.
func toAPIFoodItem(f *FoodItem) models.FoodItem {
	result := models.FoodItem{
		Code:        f.Code,
		Name:        f.Name,
		Brand:       f.Brand,
		Category:    append([]string{}, f.Category...),
		KcalPer100g: f.Kcal,
		MacrosPer100g: models.Macros{
			Fat:           f.Macros.Fat,
			SaturatedFat:  f.Macros.SaturatedFat,
			Carbohydrates: f.Macros.Carbohydrates,
			Sugars:        f.Macros.Sugars,
			Protein:       f.Macros.Protein,
			Salt:          f.Macros.Salt,
			Fiber:         f.Macros.Fiber,
		},
	}

	if f.Image.Small.URL != "" || f.Image.Large.URL != "" {
		result.Image = &models.FoodImages{}
		if f.Image.Small.URL != "" {
			result.Image.Small = &models.Image{URL: f.Image.Small.URL, Alt: f.Image.Small.Alt}
		}
		if f.Image.Large.URL != "" {
			result.Image.Large = &models.Image{URL: f.Image.Large.URL, Alt: f.Image.Large.Alt}
		}
	}
	return result
}
