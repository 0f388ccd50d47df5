package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// movementTypeService handles movement type business logic.
type movementTypeService struct {
	db *gorm.DB
}

// NewMovementTypeService creates a new MovementTypeServicer.
func NewMovementTypeService(db *gorm.DB) MovementTypeServicer {
	return &movementTypeService{db: db}
}

func (s *movementTypeService) CreateMovementType(name string) (*models.MovementType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "movement type name is required")
	}
	if err := ensureUniqueName(s.db, &models.MovementType{}, name, 0); err != nil {
		return nil, err
	}

	mt := &models.MovementType{Name: name}
	if err := s.db.Create(mt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return mt, nil
}

func (s *movementTypeService) ListMovementTypes(page pagination.PageRequest) (*pagination.PageResponse[models.MovementType], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.MovementType{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// seeded ids first: Gasto, Ingreso
	var types []models.MovementType
	if err := s.db.Order("id ASC").Scopes(pagination.Paginate(page)).Find(&types).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(types, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *movementTypeService) GetMovementTypeByID(id uint) (*models.MovementType, error) {
	var mt models.MovementType
	if err := s.db.First(&mt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &mt, nil
}

func (s *movementTypeService) UpdateMovementType(id uint, name string) (*models.MovementType, error) {
	mt, err := s.GetMovementTypeByID(id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "movement type name cannot be empty")
	}
	if err := ensureUniqueName(s.db, &models.MovementType{}, name, id); err != nil {
		return nil, err
	}

	mt.Name = name
	if err := s.db.Save(mt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return mt, nil
}

// DeleteMovementType deletes a movement type not referenced by any transaction.
func (s *movementTypeService) DeleteMovementType(id uint) error {
	mt, err := s.GetMovementTypeByID(id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).Where("tipo_id = ?", id).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrMovementTypeInUse
	}

	if err := s.db.Delete(mt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
