package services

import (
	"testing"

	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/testutil"
)

func TestCreateRule(t *testing.T) {
	t.Run("defaults_field_and_match", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		cat := testutil.CreateTestCategory(t, db)

		rule, err := svc.CreateRule(RuleInput{Pattern: " mercadona ", CategoryID: cat.ID})
		testutil.AssertNoError(t, err)

		if rule.Pattern != "mercadona" {
			t.Errorf("expected trimmed pattern, got %q", rule.Pattern)
		}
		if rule.Field != models.RuleFieldDescription {
			t.Errorf("expected field concepto, got %q", rule.Field)
		}
		if rule.Match != models.MatchContains {
			t.Errorf("expected match contains, got %q", rule.Match)
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		_, err := svc.CreateRule(RuleInput{Pattern: "x", CategoryID: 999})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("invalid_field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateRule(RuleInput{Pattern: "x", Field: "importe", CategoryID: cat.ID})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRuleService(db)
	a := testutil.CreateTestCategory(t, db)
	b := testutil.CreateTestCategory(t, db)
	testutil.CreateTestRule(t, db, "uno", a.ID)
	testutil.CreateTestRule(t, db, "dos", b.ID)
	testutil.CreateTestRule(t, db, "tres", a.ID)

	t.Run("all_in_id_order", func(t *testing.T) {
		page, err := svc.ListRules(nil, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 3 || page.Data[0].Pattern != "uno" || page.Data[2].Pattern != "tres" {
			t.Errorf("unexpected rules: %+v", page.Data)
		}
	})

	t.Run("by_category", func(t *testing.T) {
		page, err := svc.ListRules(&a.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 rules for category, got %d", page.TotalItems)
		}
	})
}

func TestUpdateAndDeleteRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRuleService(db)
	cat := testutil.CreateTestCategory(t, db)
	other := testutil.CreateTestCategory(t, db)
	rule := testutil.CreateTestRule(t, db, "netflix", cat.ID)

	updated, err := svc.UpdateRule(rule.ID, RuleInput{Pattern: "spotify", Field: models.RuleFieldNotes, CategoryID: other.ID})
	testutil.AssertNoError(t, err)
	if updated.Pattern != "spotify" || updated.Field != models.RuleFieldNotes || updated.CategoryID != other.ID {
		t.Errorf("unexpected updated rule: %+v", updated)
	}

	testutil.AssertNoError(t, svc.DeleteRule(rule.ID))
	_, err = svc.GetRuleByID(rule.ID)
	testutil.AssertAppError(t, err, "RULE_NOT_FOUND")

	err = svc.DeleteRule(rule.ID)
	testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
}

func TestReapplyRules(t *testing.T) {
	t.Run("last_match_wins_and_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		a := testutil.CreateTestCategoryNamed(t, db, "A", false)
		b := testutil.CreateTestCategoryNamed(t, db, "B", false)
		testutil.CreateTestRule(t, db, "super", a.ID)
		testutil.CreateTestRule(t, db, "mercado", b.ID)

		super := testutil.CreateTestTransaction(t, db, "2024-02-01", "Supermercado", -30)
		other := testutil.CreateTestTransaction(t, db, "2024-02-02", "Farmacia", -8)

		changed, err := svc.ReapplyRules()
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 change, got %d", changed)
		}

		var got models.Transaction
		db.First(&got, super.ID)
		if got.CategoryID == nil || *got.CategoryID != b.ID {
			t.Errorf("expected category B (%d), got %v", b.ID, got.CategoryID)
		}
		if got.Amount != -30 || got.Year != 2024 || got.Month != 2 {
			t.Errorf("reapply must not alter other fields: %+v", got)
		}
		db.First(&got, other.ID)
		if got.CategoryID != nil {
			t.Errorf("expected unmatched transaction to stay uncategorized, got %v", *got.CategoryID)
		}

		changed, err = svc.ReapplyRules()
		testutil.AssertNoError(t, err)
		if changed != 0 {
			t.Errorf("expected 0 changes on second run, got %d", changed)
		}
	})

	t.Run("no_rules", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		testutil.CreateTestTransaction(t, db, "2024-02-01", "Cualquier cosa", -1)

		changed, err := svc.ReapplyRules()
		testutil.AssertNoError(t, err)
		if changed != 0 {
			t.Errorf("expected 0 changes, got %d", changed)
		}
	})
}
