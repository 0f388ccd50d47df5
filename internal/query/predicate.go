// Package query composes movement filters as a neutral predicate list that
// can be interpreted as SQL through gorm or evaluated in memory.
package query

import (
	"fmt"
	"strings"
	"time"

	"gastos/internal/models"

	"gorm.io/gorm"
)

// Field identifies what a predicate constrains.
type Field string

const (
	FieldDate            Field = "fecha"
	FieldAmount          Field = "importe"
	FieldCategoryID      Field = "categoria_id"
	FieldTypeID          Field = "tipo_id"
	FieldPaymentMethodID Field = "metodo_pago_id"
	FieldDescription     Field = "concepto"
	FieldText            Field = "texto" // concepto OR notas
	FieldFixed           Field = "es_fijo"
	FieldImportBatch     Field = "import_batch_id"
)

// Op is the comparison a predicate performs.
type Op string

const (
	OpEq           Op = "eq"
	OpGte          Op = "gte"
	OpLte          Op = "lte"
	OpIn           Op = "in"
	OpEqFold       Op = "eq_fold"       // case-insensitive, trimmed equality
	OpContainsFold Op = "contains_fold" // case-insensitive substring
)

// Predicate is one condition. Value types: time.Time for FieldDate, float64
// for FieldAmount, uint or []uint for id fields, string for text fields and
// bool for FieldFixed.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

var columns = map[Field]string{
	FieldDate:            "movimientos.fecha",
	FieldAmount:          "movimientos.importe",
	FieldCategoryID:      "movimientos.categoria_id",
	FieldTypeID:          "movimientos.tipo_id",
	FieldPaymentMethodID: "movimientos.metodo_pago_id",
	FieldDescription:     "movimientos.concepto",
	FieldFixed:           "categorias.es_fijo",
	FieldImportBatch:     "movimientos.import_batch_id",
}

const (
	joinCategories     = "LEFT JOIN categorias ON categorias.id = movimientos.categoria_id"
	joinTypes          = "LEFT JOIN tipos_movimiento ON tipos_movimiento.id = movimientos.tipo_id"
	joinPaymentMethods = "LEFT JOIN metodos_pago ON metodos_pago.id = movimientos.metodo_pago_id"
)

// Base starts a query over movimientos with the lookup tables left-joined,
// so predicates and sort keys may reference them.
func Base(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Transaction{}).
		Joins(joinCategories).
		Joins(joinTypes).
		Joins(joinPaymentMethods)
}

// Apply adds every predicate to db as a WHERE condition (logical AND).
// An unsupported field/op combination is recorded as a query error.
func Apply(db *gorm.DB, preds []Predicate) *gorm.DB {
	for _, p := range preds {
		sql, args, err := p.sql()
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		db = db.Where(sql, args...)
	}
	return db
}

func (p Predicate) sql() (string, []any, error) {
	if p.Field == FieldText {
		if p.Op != OpContainsFold {
			return "", nil, p.unsupported()
		}
		like := "%" + escapeLike(strings.ToLower(fmt.Sprint(p.Value))) + "%"
		return `(LOWER(movimientos.concepto) LIKE ? ESCAPE '\' OR LOWER(COALESCE(movimientos.notas, '')) LIKE ? ESCAPE '\')`,
			[]any{like, like}, nil
	}

	col, ok := columns[p.Field]
	if !ok {
		return "", nil, p.unsupported()
	}
	switch p.Op {
	case OpEq:
		return col + " = ?", []any{p.Value}, nil
	case OpGte:
		return col + " >= ?", []any{p.Value}, nil
	case OpLte:
		return col + " <= ?", []any{p.Value}, nil
	case OpIn:
		return col + " IN ?", []any{p.Value}, nil
	case OpEqFold:
		return "LOWER(TRIM(" + col + ")) = ?", []any{strings.ToLower(strings.TrimSpace(fmt.Sprint(p.Value)))}, nil
	case OpContainsFold:
		like := "%" + escapeLike(strings.ToLower(fmt.Sprint(p.Value))) + "%"
		return "LOWER(" + col + `) LIKE ? ESCAPE '\'`, []any{like}, nil
	}
	return "", nil, p.unsupported()
}

func (p Predicate) unsupported() error {
	return fmt.Errorf("unsupported predicate %s %s", p.Field, p.Op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Match evaluates the predicates against a loaded transaction. FieldFixed
// needs tx.Category populated; a transaction without category never matches
// it, as with the SQL left join.
func Match(tx *models.Transaction, preds []Predicate) bool {
	for _, p := range preds {
		if !p.match(tx) {
			return false
		}
	}
	return true
}

func (p Predicate) match(tx *models.Transaction) bool {
	switch p.Field {
	case FieldDate:
		v, ok := p.Value.(time.Time)
		if !ok {
			return false
		}
		return compareOrdered(models.DateOnly(tx.Date).Unix(), models.DateOnly(v).Unix(), p.Op)
	case FieldAmount:
		v, ok := p.Value.(float64)
		if !ok {
			return false
		}
		return compareOrdered(tx.Amount, v, p.Op)
	case FieldCategoryID:
		return matchID(tx.CategoryID, p)
	case FieldTypeID:
		return matchID(tx.TypeID, p)
	case FieldPaymentMethodID:
		return matchID(tx.PaymentMethodID, p)
	case FieldDescription:
		return matchText(tx.Description, p)
	case FieldText:
		notes := ""
		if tx.Notes != nil {
			notes = *tx.Notes
		}
		return matchText(tx.Description, p) || matchText(notes, p)
	case FieldFixed:
		v, ok := p.Value.(bool)
		if !ok || p.Op != OpEq || tx.Category == nil {
			return false
		}
		return tx.Category.IsFixed == v
	case FieldImportBatch:
		v, ok := p.Value.(string)
		return ok && p.Op == OpEq && tx.ImportBatchID != nil && *tx.ImportBatchID == v
	}
	return false
}

type ordered interface {
	~int64 | ~float64
}

func compareOrdered[T ordered](got, want T, op Op) bool {
	switch op {
	case OpEq:
		return got == want
	case OpGte:
		return got >= want
	case OpLte:
		return got <= want
	}
	return false
}

func matchID(id *uint, p Predicate) bool {
	if id == nil {
		return false
	}
	switch p.Op {
	case OpEq:
		v, ok := p.Value.(uint)
		return ok && *id == v
	case OpIn:
		ids, ok := p.Value.([]uint)
		if !ok {
			return false
		}
		for _, v := range ids {
			if *id == v {
				return true
			}
		}
	}
	return false
}

func matchText(s string, p Predicate) bool {
	v, ok := p.Value.(string)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return s == v
	case OpEqFold:
		return strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v))
	case OpContainsFold:
		return strings.Contains(strings.ToLower(s), strings.ToLower(v))
	}
	return false
}
