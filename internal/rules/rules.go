// Package rules evaluates auto-categorization rules against transactions.
package rules

import (
	"strings"

	"gastos/internal/models"
)

// fieldValue reads the text a rule targets. Unknown fields and nil values
// read as the empty string.
func fieldValue(tx *models.Transaction, field models.RuleField) (string, bool) {
	switch field {
	case models.RuleFieldDescription:
		return tx.Description, true
	case models.RuleFieldNotes:
		if tx.Notes == nil {
			return "", true
		}
		return *tx.Notes, true
	}
	return "", false
}

// Matches reports whether a single rule applies to the transaction.
func Matches(rule models.Rule, tx *models.Transaction) bool {
	if rule.Pattern == "" {
		return false
	}
	value, ok := fieldValue(tx, rule.Field)
	if !ok {
		return false
	}
	switch rule.Match {
	case models.MatchContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(rule.Pattern))
	}
	return false
}

// Apply runs every rule in order and assigns the category of each match.
// Evaluation does not stop at the first match, so the last matching rule wins.
// It reports whether the category changed.
func Apply(tx *models.Transaction, rules []models.Rule) bool {
	before := tx.CategoryID
	for _, rule := range rules {
		if Matches(rule, tx) {
			id := rule.CategoryID
			tx.CategoryID = &id
		}
	}
	return !sameID(before, tx.CategoryID)
}

// ReapplyAll applies rules to every transaction and returns those whose
// category changed. Unchanged transactions are left untouched.
func ReapplyAll(rules []models.Rule, txs []models.Transaction) []*models.Transaction {
	var changed []*models.Transaction
	for i := range txs {
		if Apply(&txs[i], rules) {
			changed = append(changed, &txs[i])
		}
	}
	return changed
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
