package services

import (
	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/query"
)

// UncategorizedLabel names the bucket of transactions without a category.
const UncategorizedLabel = "Sin categoría"

// DashboardSummary aggregates the whole filtered set. Expenses are absolute.
type DashboardSummary struct {
	TotalExpenses        float64  `json:"total_gastos"`
	TotalIncome          float64  `json:"total_ingresos"`
	NetBalance           float64  `json:"balance_neto"`
	AvgMonthlyExpense    float64  `json:"gasto_medio_mensual"`
	MonthlyChangePercent *float64 `json:"variacion_mensual_porcentaje"`
	Projection30d        *float64 `json:"proyeccion_saldo_30d"`
	Projection60d        *float64 `json:"proyeccion_saldo_60d"`
}

// MonthlyPoint is one month of the series, ordered by year then month.
type MonthlyPoint struct {
	Year          int     `json:"anio"`
	Month         int     `json:"mes"`
	MonthKey      string  `json:"mes_anio"`
	TotalExpenses float64 `json:"total_gastos"`
	TotalIncome   float64 `json:"total_ingresos"`
	NetBalance    float64 `json:"balance_neto"`
}

// CategoryPoint is the breakdown for one category.
type CategoryPoint struct {
	CategoryID    *uint   `json:"categoria_id"`
	CategoryName  string  `json:"categoria"`
	TotalAmount   float64 `json:"total_importe"`
	TotalExpenses float64 `json:"total_gastos"`
	TotalIncome   float64 `json:"total_ingresos"`
	Percentage    float64 `json:"porcentaje_sobre_total"`
}

// YearPoint is one year of the yearly series.
type YearPoint struct {
	Year          int     `json:"anio"`
	TotalExpenses float64 `json:"total_gastos"`
	TotalIncome   float64 `json:"total_ingresos"`
	NetBalance    float64 `json:"balance_neto"`
}

// dashboardService computes dashboard analytics over the reduced filter.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

const (
	sumExpensesAbs = "COALESCE(SUM(CASE WHEN movimientos.importe < 0 THEN -movimientos.importe ELSE 0 END), 0)"
	sumIncome      = "COALESCE(SUM(CASE WHEN movimientos.importe > 0 THEN movimientos.importe ELSE 0 END), 0)"
	sumAmount      = "COALESCE(SUM(movimientos.importe), 0)"
)

func (s *dashboardService) filtered(filter query.MovementFilter) *gorm.DB {
	return query.Apply(query.Base(s.db), filter.Reduced().Predicates())
}

// GetSummary returns totals, the average monthly expense, the month-over-month
// expense variation and the 30/60 day balance projection.
func (s *dashboardService) GetSummary(filter query.MovementFilter) (*DashboardSummary, error) {
	var totals struct {
		Expenses float64
		Income   float64
		Net      float64
	}
	err := s.filtered(filter).
		Select(sumExpensesAbs + " AS expenses, " + sumIncome + " AS income, " + sumAmount + " AS net").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	months, err := s.GetMonthlySeries(filter)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		TotalExpenses: totals.Expenses,
		TotalIncome:   totals.Income,
		NetBalance:    totals.Net,
	}
	if len(months) == 0 {
		return summary, nil
	}

	var expenseSum, netSum float64
	for _, m := range months {
		expenseSum += m.TotalExpenses
		netSum += m.NetBalance
	}
	n := float64(len(months))
	summary.AvgMonthlyExpense = expenseSum / n

	if len(months) >= 2 {
		last, prev := months[len(months)-1].TotalExpenses, months[len(months)-2].TotalExpenses
		if prev != 0 {
			v := (last - prev) / prev * 100
			summary.MonthlyChangePercent = &v
		}
	}

	daily := netSum / n / 30
	p30 := totals.Net + daily*30
	p60 := totals.Net + daily*60
	summary.Projection30d = &p30
	summary.Projection60d = &p60
	return summary, nil
}

// GetMonthlySeries returns per-month absolute expenses, income and net.
func (s *dashboardService) GetMonthlySeries(filter query.MovementFilter) ([]MonthlyPoint, error) {
	points := []MonthlyPoint{}
	err := s.filtered(filter).
		Select("movimientos.anio AS year, movimientos.mes AS month, movimientos.mes_anio AS month_key, " +
			sumExpensesAbs + " AS total_expenses, " + sumIncome + " AS total_income, " + sumAmount + " AS net_balance").
		Group("movimientos.anio, movimientos.mes, movimientos.mes_anio").
		Order("movimientos.anio ASC, movimientos.mes ASC").
		Scan(&points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return points, nil
}

// GetByCategory returns one bucket per category, with uncategorized
// transactions grouped under UncategorizedLabel. Percentages are each
// bucket's share of the period's absolute expenses.
func (s *dashboardService) GetByCategory(filter query.MovementFilter) ([]CategoryPoint, error) {
	points := []CategoryPoint{}
	err := s.filtered(filter).
		Select("movimientos.categoria_id AS category_id, COALESCE(categorias.nombre, ?) AS category_name, "+
			sumAmount+" AS total_amount, "+sumExpensesAbs+" AS total_expenses, "+sumIncome+" AS total_income",
			UncategorizedLabel).
		Group("movimientos.categoria_id, categorias.nombre").
		Order("total_expenses DESC").
		Order("category_name ASC").
		Scan(&points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var total float64
	for _, p := range points {
		total += p.TotalExpenses
	}
	for i := range points {
		if total != 0 {
			points[i].Percentage = points[i].TotalExpenses / total * 100
		}
	}
	return points, nil
}

// GetYearlySeries returns per-year absolute expenses, income and net, ascending.
func (s *dashboardService) GetYearlySeries(filter query.MovementFilter) ([]YearPoint, error) {
	points := []YearPoint{}
	err := s.filtered(filter).
		Select("movimientos.anio AS year, " + sumExpensesAbs + " AS total_expenses, " +
			sumIncome + " AS total_income, " + sumAmount + " AS net_balance").
		Group("movimientos.anio").
		Order("movimientos.anio ASC").
		Scan(&points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return points, nil
}
