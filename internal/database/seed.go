package database

import (
	"gastos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed ensures the reference movement types exist. Safe to call repeatedly.
func Seed(db *gorm.DB) error {
	types := []models.MovementType{
		{Base: models.Base{ID: models.MovementTypeExpenseID}, Name: "Gasto"},
		{Base: models.Base{ID: models.MovementTypeIncomeID}, Name: "Ingreso"},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&types).Error
}
