package models

// PaymentMethod is how a transaction was paid (card, transfer, cash...).
type PaymentMethod struct {
	Base
	Name string `gorm:"column:nombre;not null;uniqueIndex" json:"nombre"`
}

// TableName overrides the default table name.
func (PaymentMethod) TableName() string { return "metodos_pago" }
