package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gastos/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date parses a YYYY-MM-DD literal, failing the test on error.
func Date(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", s, err)
	}
	return d
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CreateTestCategory creates a variable-expense category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, fmt.Sprintf("Test Category %d", nextID()), false)
}

// CreateTestCategoryNamed creates a category with the given name and fixed flag.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, name string, fixed bool) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, IsFixed: fixed}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPaymentMethod creates a payment method with a unique name.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB) *models.PaymentMethod {
	t.Helper()

	pm := &models.PaymentMethod{Name: fmt.Sprintf("Test Method %d", nextID())}
	if err := db.Create(pm).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return pm
}

// CreateTestRule creates a "contains" rule on concepto for the given category.
func CreateTestRule(t *testing.T, db *gorm.DB, pattern string, categoryID uint) *models.Rule {
	t.Helper()

	rule := &models.Rule{
		Pattern:    pattern,
		Field:      models.RuleFieldDescription,
		Match:      models.MatchContains,
		CategoryID: categoryID,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestTransaction creates a transaction on the given date (YYYY-MM-DD).
// Negative amounts get the expense type, positive ones the income type.
func CreateTestTransaction(t *testing.T, db *gorm.DB, date, description string, amount float64) *models.Transaction {
	t.Helper()

	typeID := models.MovementTypeIncomeID
	if amount < 0 {
		typeID = models.MovementTypeExpenseID
	}
	return CreateTestTransactionWith(t, db, &models.Transaction{
		Date:        Date(t, date),
		Description: description,
		Amount:      amount,
		TypeID:      &typeID,
	})
}

// CreateTestTransactionWith persists a fully specified transaction.
func CreateTestTransactionWith(t *testing.T, db *gorm.DB, tx *models.Transaction) *models.Transaction {
	t.Helper()

	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
