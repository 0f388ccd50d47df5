// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"gastos/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("rule_field", validateRuleField)
		_ = v.RegisterValidation("match_kind", validateMatchKind)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

func validateRuleField(fl validator.FieldLevel) bool {
	switch models.RuleField(fl.Field().String()) {
	case models.RuleFieldDescription, models.RuleFieldNotes:
		return true
	}
	return false
}

func validateMatchKind(fl validator.FieldLevel) bool {
	return models.MatchKind(fl.Field().String()) == models.MatchContains
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
