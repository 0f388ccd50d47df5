package query

import (
	"strings"
	"time"
)

// MovementFilter is the user-facing filter over transactions. Every field is
// optional; a zero value contributes no predicate.
type MovementFilter struct {
	DateFrom         *time.Time
	DateTo           *time.Time
	CategoryIDs      []uint
	TypeIDs          []uint
	PaymentMethodIDs []uint
	AmountMin        *float64
	AmountMax        *float64
	Search           string
	OnlyFixed        bool
	OnlyVariable     bool
	ImportBatchID    string
}

// Predicates translates the filter into its predicate list. Date bounds and
// amount bounds are inclusive.
func (f MovementFilter) Predicates() []Predicate {
	var preds []Predicate
	if f.DateFrom != nil {
		preds = append(preds, Predicate{FieldDate, OpGte, *f.DateFrom})
	}
	if f.DateTo != nil {
		preds = append(preds, Predicate{FieldDate, OpLte, *f.DateTo})
	}
	if len(f.CategoryIDs) > 0 {
		preds = append(preds, Predicate{FieldCategoryID, OpIn, f.CategoryIDs})
	}
	if len(f.TypeIDs) > 0 {
		preds = append(preds, Predicate{FieldTypeID, OpIn, f.TypeIDs})
	}
	if len(f.PaymentMethodIDs) > 0 {
		preds = append(preds, Predicate{FieldPaymentMethodID, OpIn, f.PaymentMethodIDs})
	}
	if f.AmountMin != nil {
		preds = append(preds, Predicate{FieldAmount, OpGte, *f.AmountMin})
	}
	if f.AmountMax != nil {
		preds = append(preds, Predicate{FieldAmount, OpLte, *f.AmountMax})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, Predicate{FieldText, OpContainsFold, s})
	}
	if f.OnlyFixed {
		preds = append(preds, Predicate{FieldFixed, OpEq, true})
	}
	if f.OnlyVariable {
		preds = append(preds, Predicate{FieldFixed, OpEq, false})
	}
	if f.ImportBatchID != "" {
		preds = append(preds, Predicate{FieldImportBatch, OpEq, f.ImportBatchID})
	}
	return preds
}

// Reduced drops the free-text search and batch filters, leaving the subset
// the dashboard accepts.
func (f MovementFilter) Reduced() MovementFilter {
	f.Search = ""
	f.ImportBatchID = ""
	return f
}
