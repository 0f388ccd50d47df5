package models

// Seeded movement type ids. Only sign detection during import relies on them.
const (
	MovementTypeExpenseID uint = 1
	MovementTypeIncomeID  uint = 2
)

// MovementType classifies a transaction as expense, income, etc.
type MovementType struct {
	Base
	Name string `gorm:"column:nombre;not null;uniqueIndex" json:"nombre"`
}

// TableName overrides the default table name.
func (MovementType) TableName() string { return "tipos_movimiento" }
