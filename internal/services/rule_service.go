package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/rules"
)

// RuleInput carries the writable fields of an auto-categorization rule.
type RuleInput struct {
	Pattern    string           `json:"pattern" binding:"required,notblank"`
	Field      models.RuleField `json:"campo_objetivo" binding:"omitempty,rule_field"`
	Match      models.MatchKind `json:"tipo_match" binding:"omitempty,match_kind"`
	CategoryID uint             `json:"categoria_id" binding:"required"`
}

func (in *RuleInput) normalize() {
	in.Pattern = strings.TrimSpace(in.Pattern)
	if in.Field == "" {
		in.Field = models.RuleFieldDescription
	}
	if in.Match == "" {
		in.Match = models.MatchContains
	}
}

// ruleService handles rule CRUD and bulk reapplication.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// CreateRule creates a rule pointing at an existing category.
func (s *ruleService) CreateRule(input RuleInput) (*models.Rule, error) {
	input.normalize()
	if err := s.validate(input); err != nil {
		return nil, err
	}

	rule := &models.Rule{
		Pattern:    input.Pattern,
		Field:      input.Field,
		Match:      input.Match,
		CategoryID: input.CategoryID,
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// ListRules lists rules in evaluation order, optionally for a single category.
func (s *ruleService) ListRules(categoryID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Rule], error) {
	page.Defaults()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Rule{})
		if categoryID != nil {
			db = db.Where("categoria_id = ?", *categoryID)
		}
		return db
	}

	var totalItems int64
	if err := s.db.Scopes(scope).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Rule
	if err := s.db.Scopes(scope, pagination.Paginate(page)).Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRuleByID retrieves a rule by ID
func (s *ruleService) GetRuleByID(ruleID uint) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.First(&rule, ruleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule replaces the writable fields of a rule.
func (s *ruleService) UpdateRule(ruleID uint, input RuleInput) (*models.Rule, error) {
	rule, err := s.GetRuleByID(ruleID)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := s.validate(input); err != nil {
		return nil, err
	}

	rule.Pattern = input.Pattern
	rule.Field = input.Field
	rule.Match = input.Match
	rule.CategoryID = input.CategoryID
	if err := s.db.Save(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

func (s *ruleService) DeleteRule(ruleID uint) error {
	rule, err := s.GetRuleByID(ruleID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ReapplyRules runs every rule over every transaction and persists the
// category changes in a single database transaction. It returns the number
// of transactions whose category changed.
func (s *ruleService) ReapplyRules() (int, error) {
	var changed int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ruleSet, err := loadRules(tx)
		if err != nil {
			return err
		}

		var txs []models.Transaction
		if err := tx.Order("id ASC").Find(&txs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		updated := rules.ReapplyAll(ruleSet, txs)
		for _, t := range updated {
			if err := tx.Save(t).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		changed = len(updated)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Named("rules").Infow("rules reapplied", "updated", changed)
	return changed, nil
}

func (s *ruleService) validate(input RuleInput) error {
	if input.Pattern == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required")
	}
	if input.Field != models.RuleFieldDescription && input.Field != models.RuleFieldNotes {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "campo_objetivo must be concepto or notas")
	}
	if input.Match != models.MatchContains {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "tipo_match must be contains")
	}
	return ensureExists(s.db, &models.Category{}, input.CategoryID, apperrors.ErrCategoryNotFound)
}

// loadRules returns every rule in evaluation order.
func loadRules(db *gorm.DB) ([]models.Rule, error) {
	var ruleSet []models.Rule
	if err := db.Order("id ASC").Find(&ruleSet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ruleSet, nil
}

// ensureExists returns notFound when no row of model's table has the given id.
func ensureExists(db *gorm.DB, model any, id uint, notFound *apperrors.AppError) error {
	ok, err := exists(db, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}
