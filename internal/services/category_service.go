package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(name string, isFixed bool) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if err := ensureUniqueName(s.db, &models.Category{}, name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, IsFixed: isFixed}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories retrieves a paginated list of categories ordered by name.
func (s *categoryService) ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	return listByName[models.Category](s.db, page)
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates the provided fields of an existing category
func (s *categoryService) UpdateCategory(categoryID uint, name *string, isFixed *bool) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if err := ensureUniqueName(s.db, &models.Category{}, trimmed, categoryID); err != nil {
			return nil, err
		}
		category.Name = trimmed
	}
	if isFixed != nil {
		category.IsFixed = *isFixed
	}

	if err := s.db.Save(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory deletes a category together with its rules. Categories
// still referenced by transactions cannot be deleted.
func (s *categoryService) DeleteCategory(categoryID uint) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.Transaction{}).Where("categoria_id = ?", categoryID).Count(&inUse).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if inUse > 0 {
			return apperrors.ErrCategoryInUse
		}

		if err := tx.Where("categoria_id = ?", categoryID).Delete(&models.Rule{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ensureUniqueName returns ErrDuplicateName when another row of model's table
// (other than excludeID) already uses name, compared case-insensitively.
func ensureUniqueName(db *gorm.DB, model any, name string, excludeID uint) error {
	var count int64
	q := db.Model(model).Where("LOWER(nombre) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "ya existe un registro con el nombre '"+name+"'")
	}
	return nil
}

// listByName pages through a lookup table ordered by nombre.
func listByName[T any](db *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[T], error) {
	page.Defaults()

	var totalItems int64
	if err := db.Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []T
	if err := db.Model(new(T)).Order("nombre ASC").Order("id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}
