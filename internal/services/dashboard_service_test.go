package services

import (
	"testing"

	"gastos/internal/models"
	"gastos/internal/query"
	"gastos/internal/testutil"

	"gorm.io/gorm"
)

// seedDashboard stores expenses -100, -200, -50 over three months and income
// +500, +400. Rent is in a fixed category, the cinema ticket in a variable one.
func seedDashboard(t *testing.T, db *gorm.DB) (fixed, variable *models.Category) {
	t.Helper()
	fixed = testutil.CreateTestCategoryNamed(t, db, "Alquiler", true)
	variable = testutil.CreateTestCategoryNamed(t, db, "Ocio", false)

	testutil.CreateTestTransactionWith(t, db, &models.Transaction{
		Date: testutil.Date(t, "2024-01-03"), Description: "Alquiler", Amount: -100, CategoryID: &fixed.ID,
	})
	testutil.CreateTestTransaction(t, db, "2024-01-28", "Nómina enero", 500)
	testutil.CreateTestTransactionWith(t, db, &models.Transaction{
		Date: testutil.Date(t, "2024-02-14"), Description: "Concierto", Amount: -200, CategoryID: &variable.ID,
	})
	testutil.CreateTestTransaction(t, db, "2024-02-28", "Nómina febrero", 400)
	testutil.CreateTestTransaction(t, db, "2024-03-09", "Farmacia", -50)
	return fixed, variable
}

func TestGetSummary(t *testing.T) {
	t.Run("scenario", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		seedDashboard(t, db)
		svc := NewDashboardService(db)

		s, err := svc.GetSummary(query.MovementFilter{})
		testutil.AssertNoError(t, err)

		testutil.AssertInDelta(t, s.TotalExpenses, 350, 1e-9, "total_gastos")
		testutil.AssertInDelta(t, s.TotalIncome, 900, 1e-9, "total_ingresos")
		testutil.AssertInDelta(t, s.NetBalance, 550, 1e-9, "balance_neto")
		testutil.AssertInDelta(t, s.AvgMonthlyExpense, 350.0/3, 1e-9, "gasto_medio_mensual")

		if s.MonthlyChangePercent == nil {
			t.Fatal("expected variacion_mensual_porcentaje")
		}
		testutil.AssertInDelta(t, *s.MonthlyChangePercent, -75, 1e-9, "variacion_mensual_porcentaje")

		if s.Projection30d == nil || s.Projection60d == nil {
			t.Fatal("expected projections")
		}
		testutil.AssertInDelta(t, *s.Projection30d, 550+550.0/3, 1e-9, "proyeccion_saldo_30d")
		testutil.AssertInDelta(t, *s.Projection60d, 550+2*550.0/3, 1e-9, "proyeccion_saldo_60d")
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db)

		s, err := svc.GetSummary(query.MovementFilter{})
		testutil.AssertNoError(t, err)

		if s.TotalExpenses != 0 || s.AvgMonthlyExpense != 0 {
			t.Errorf("expected zero totals, got %+v", s)
		}
		if s.MonthlyChangePercent != nil || s.Projection30d != nil || s.Projection60d != nil {
			t.Errorf("expected null variation and projections, got %+v", s)
		}
	})

	t.Run("single_month_has_no_variation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		seedDashboard(t, db)
		svc := NewDashboardService(db)
		from, to := testutil.Date(t, "2024-03-01"), testutil.Date(t, "2024-03-31")

		s, err := svc.GetSummary(query.MovementFilter{DateFrom: &from, DateTo: &to})
		testutil.AssertNoError(t, err)
		if s.MonthlyChangePercent != nil {
			t.Errorf("expected null variation, got %v", *s.MonthlyChangePercent)
		}
		testutil.AssertInDelta(t, s.TotalExpenses, 50, 1e-9, "total_gastos")
	})

	t.Run("ignores_search", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		seedDashboard(t, db)
		svc := NewDashboardService(db)

		s, err := svc.GetSummary(query.MovementFilter{Search: "nómina"})
		testutil.AssertNoError(t, err)
		testutil.AssertInDelta(t, s.TotalExpenses, 350, 1e-9, "total_gastos")
	})
}

func TestGetMonthlySeries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedDashboard(t, db)
	svc := NewDashboardService(db)

	series, err := svc.GetMonthlySeries(query.MovementFilter{})
	testutil.AssertNoError(t, err)

	if len(series) != 3 {
		t.Fatalf("expected 3 months, got %d", len(series))
	}
	want := []MonthlyPoint{
		{Year: 2024, Month: 1, MonthKey: "2024-01", TotalExpenses: 100, TotalIncome: 500, NetBalance: 400},
		{Year: 2024, Month: 2, MonthKey: "2024-02", TotalExpenses: 200, TotalIncome: 400, NetBalance: 200},
		{Year: 2024, Month: 3, MonthKey: "2024-03", TotalExpenses: 50, TotalIncome: 0, NetBalance: -50},
	}
	for i, w := range want {
		if series[i] != w {
			t.Errorf("month %d: expected %+v, got %+v", i, w, series[i])
		}
	}
}

func TestGetByCategory(t *testing.T) {
	t.Run("percentages_sum_to_100", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, variable := seedDashboard(t, db)
		svc := NewDashboardService(db)

		points, err := svc.GetByCategory(query.MovementFilter{})
		testutil.AssertNoError(t, err)

		if len(points) != 3 {
			t.Fatalf("expected 3 buckets, got %d: %+v", len(points), points)
		}
		if points[0].CategoryID == nil || *points[0].CategoryID != variable.ID {
			t.Errorf("expected largest expense bucket first, got %+v", points[0])
		}

		var sum float64
		var uncategorized *CategoryPoint
		for i := range points {
			sum += points[i].Percentage
			if points[i].CategoryID == nil {
				uncategorized = &points[i]
			}
		}
		testutil.AssertInDelta(t, sum, 100, 1e-9, "percentage sum")

		if uncategorized == nil || uncategorized.CategoryName != UncategorizedLabel {
			t.Fatalf("expected %q bucket, got %+v", UncategorizedLabel, uncategorized)
		}
		testutil.AssertInDelta(t, uncategorized.TotalExpenses, 50, 1e-9, "uncategorized expenses")
		testutil.AssertInDelta(t, uncategorized.TotalIncome, 900, 1e-9, "uncategorized income")
		testutil.AssertInDelta(t, uncategorized.TotalAmount, 850, 1e-9, "uncategorized amount")
	})

	t.Run("no_expenses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateTestTransaction(t, db, "2024-01-01", "Nómina", 1000)
		svc := NewDashboardService(db)

		points, err := svc.GetByCategory(query.MovementFilter{})
		testutil.AssertNoError(t, err)
		if len(points) != 1 || points[0].Percentage != 0 {
			t.Errorf("expected one bucket at 0%%, got %+v", points)
		}
	})

	t.Run("fixed_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		fixed, _ := seedDashboard(t, db)
		svc := NewDashboardService(db)

		points, err := svc.GetByCategory(query.MovementFilter{OnlyFixed: true})
		testutil.AssertNoError(t, err)
		if len(points) != 1 || *points[0].CategoryID != fixed.ID || points[0].Percentage != 100 {
			t.Errorf("expected only the fixed category at 100%%, got %+v", points)
		}
	})
}

func TestGetYearlySeries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedDashboard(t, db)
	testutil.CreateTestTransaction(t, db, "2023-06-01", "Viaje", -300)
	svc := NewDashboardService(db)

	years, err := svc.GetYearlySeries(query.MovementFilter{})
	testutil.AssertNoError(t, err)

	if len(years) != 2 || years[0].Year != 2023 || years[1].Year != 2024 {
		t.Fatalf("expected 2023 then 2024, got %+v", years)
	}
	if years[0].TotalExpenses != 300 || years[0].NetBalance != -300 {
		t.Errorf("unexpected 2023: %+v", years[0])
	}
	if years[1].TotalExpenses != 350 || years[1].TotalIncome != 900 || years[1].NetBalance != 550 {
		t.Errorf("unexpected 2024: %+v", years[1])
	}
}
