package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// paymentMethodService handles payment method business logic.
type paymentMethodService struct {
	db *gorm.DB
}

// NewPaymentMethodService creates a new PaymentMethodServicer.
func NewPaymentMethodService(db *gorm.DB) PaymentMethodServicer {
	return &paymentMethodService{db: db}
}

func (s *paymentMethodService) CreatePaymentMethod(name string) (*models.PaymentMethod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method name is required")
	}
	if err := ensureUniqueName(s.db, &models.PaymentMethod{}, name, 0); err != nil {
		return nil, err
	}

	pm := &models.PaymentMethod{Name: name}
	if err := s.db.Create(pm).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pm, nil
}

func (s *paymentMethodService) ListPaymentMethods(page pagination.PageRequest) (*pagination.PageResponse[models.PaymentMethod], error) {
	return listByName[models.PaymentMethod](s.db, page)
}

func (s *paymentMethodService) GetPaymentMethodByID(id uint) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := s.db.First(&pm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentMethodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pm, nil
}

func (s *paymentMethodService) UpdatePaymentMethod(id uint, name string) (*models.PaymentMethod, error) {
	pm, err := s.GetPaymentMethodByID(id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method name cannot be empty")
	}
	if err := ensureUniqueName(s.db, &models.PaymentMethod{}, name, id); err != nil {
		return nil, err
	}

	pm.Name = name
	if err := s.db.Save(pm).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pm, nil
}

// DeletePaymentMethod deletes a payment method not referenced by any transaction.
func (s *paymentMethodService) DeletePaymentMethod(id uint) error {
	pm, err := s.GetPaymentMethodByID(id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).Where("metodo_pago_id = ?", id).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrPaymentMethodInUse
	}

	if err := s.db.Delete(pm).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
