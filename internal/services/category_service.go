package services

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

// CategoryService manages the service category catalogue.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService returns a CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// ListActive returns active categories in display order.
func (s *CategoryService) ListActive(ctx context.Context) ([]models.ServiceCategory, error) {
	var categories []models.ServiceCategory
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order asc, name asc").
		Find(&categories).Error
	return categories, err
}

// ListAll returns every category, active or not, for admin screens.
func (s *CategoryService) ListAll(ctx context.Context) ([]models.ServiceCategory, error) {
	var categories []models.ServiceCategory
	err := s.db.WithContext(ctx).
		Order("sort_order asc, name asc").
		Find(&categories).Error
	return categories, err
}

// GetBySlug returns the active category with the given slug.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.ServiceCategory, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, errors.ErrNotFound
	}

	var category models.ServiceCategory
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		Take(&category).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateInput describes a new category.
type CategoryCreateInput struct {
	Name      string `json:"name" validate:"required,max=80"`
	SortOrder int    `json:"sort_order"`
}

// Create adds a category. Names must be unique.
func (s *CategoryService) Create(ctx context.Context, input CategoryCreateInput) (*models.ServiceCategory, error) {
	category := models.ServiceCategory{
		Name:      strings.TrimSpace(input.Name),
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if category.SortOrder == 0 {
		category.SortOrder = 100
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewBadRequest("A category with this name already exists")
		}
		return nil, err
	}
	return &category, nil
}

// CategoryUpdateInput carries optional category changes.
type CategoryUpdateInput struct {
	Name      *string `json:"name" validate:"omitempty,max=80"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order"`
}

// Update applies changes to a category.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryUpdateInput) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	err := s.db.WithContext(ctx).Take(&category, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.NewBadRequest("Category name cannot be empty")
		}
		updates["name"] = name
		updates["slug"] = models.Slugify(name)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if len(updates) == 0 {
		return &category, nil
	}

	if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewBadRequest("A category with this name already exists")
		}
		return nil, err
	}
	return &category, nil
}
