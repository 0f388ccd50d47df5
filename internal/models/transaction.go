package models

import (
	"fmt"
	"time"

	apperrors "gastos/internal/errors"

	"gorm.io/gorm"
)

// Transaction is a single bank movement ("movimiento"). Year, Month and
// MonthKey are derived from Date by the save hook and never set directly.
type Transaction struct {
	Base
	Date            time.Time `gorm:"column:fecha;type:date;not null;index" json:"fecha"`
	Description     string    `gorm:"column:concepto;not null" json:"concepto"`
	Amount          float64   `gorm:"column:importe;not null;check:ck_importe_no_cero,importe <> 0" json:"importe"`
	Balance         *float64  `gorm:"column:saldo" json:"saldo"`
	Notes           *string   `gorm:"column:notas" json:"notas"`
	TypeID          *uint     `gorm:"column:tipo_id" json:"tipo_id"`
	CategoryID      *uint     `gorm:"column:categoria_id;index" json:"categoria_id"`
	PaymentMethodID *uint     `gorm:"column:metodo_pago_id" json:"metodo_pago_id"`
	Year            int       `gorm:"column:anio;not null;index:idx_movimientos_anio_mes" json:"anio"`
	Month           int       `gorm:"column:mes;not null;index:idx_movimientos_anio_mes" json:"mes"`
	MonthKey        string    `gorm:"column:mes_anio;size:7;not null" json:"mes_anio"`
	ImportBatchID   *string   `gorm:"column:import_batch_id;index" json:"import_batch_id,omitempty"`

	// Relationships
	Type          *MovementType  `gorm:"foreignKey:TypeID" json:"tipo,omitempty"`
	Category      *Category      `gorm:"foreignKey:CategoryID" json:"categoria,omitempty"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"metodo_pago,omitempty"`
}

// TableName overrides the default table name.
func (Transaction) TableName() string { return "movimientos" }

// BeforeSave rejects zero amounts and recomputes the derived date fields.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	if t.Amount == 0 {
		return apperrors.ErrZeroAmount
	}
	t.Date = DateOnly(t.Date)
	t.Year, t.Month, t.MonthKey = DerivedDateFields(t.Date)
	return nil
}

// DerivedDateFields returns the year, month and "YYYY-MM" key for a date.
func DerivedDateFields(d time.Time) (int, int, string) {
	y, m := d.Year(), int(d.Month())
	return y, m, fmt.Sprintf("%04d-%02d", y, m)
}

// DateOnly truncates a timestamp to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
