package query

import (
	"gorm.io/gorm"
)

// Totals are the aggregates returned next to a listing. Expenses are the
// (negative) sum of negative amounts.
type Totals struct {
	Count      int64    `json:"total_registros"`
	Amount     float64  `json:"total_importe"`
	Expenses   float64  `json:"total_gastos"`
	Income     float64  `json:"total_ingresos"`
	MonthlyAvg *float64 `json:"media_mensual"`
}

type totalsRow struct {
	Count    int64
	Amount   float64
	Expenses float64
	Income   float64
	MinMonth *int64
	MaxMonth *int64
}

// Aggregate computes Totals over the rows matched by preds in one query.
// The monthly average divides the total by the inclusive number of months
// between the earliest and latest matched dates.
func Aggregate(db *gorm.DB, preds []Predicate) (*Totals, error) {
	var row totalsRow
	err := Apply(Base(db), preds).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(movimientos.importe), 0) AS amount,
			COALESCE(SUM(CASE WHEN movimientos.importe < 0 THEN movimientos.importe ELSE 0 END), 0) AS expenses,
			COALESCE(SUM(CASE WHEN movimientos.importe > 0 THEN movimientos.importe ELSE 0 END), 0) AS income,
			MIN(movimientos.anio * 12 + movimientos.mes - 1) AS min_month,
			MAX(movimientos.anio * 12 + movimientos.mes - 1) AS max_month`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	totals := &Totals{
		Count:    row.Count,
		Amount:   row.Amount,
		Expenses: row.Expenses,
		Income:   row.Income,
	}
	if row.Count > 0 && row.MinMonth != nil && row.MaxMonth != nil {
		avg := row.Amount / float64(MonthSpan(*row.MinMonth, *row.MaxMonth))
		totals.MonthlyAvg = &avg
	}
	return totals, nil
}

// MonthSpan is the inclusive number of months between two month indexes
// (year*12 + month-1).
func MonthSpan(minMonth, maxMonth int64) int64 {
	return maxMonth - minMonth + 1
}
