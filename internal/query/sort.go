package query

import (
	"strings"

	"gorm.io/gorm"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// DefaultSortKey is used when the requested key is not allow-listed.
const DefaultSortKey = "fecha"

var sortColumns = map[string]string{
	"fecha":       "movimientos.fecha",
	"importe":     "movimientos.importe",
	"concepto":    "movimientos.concepto",
	"categoria":   "categorias.nombre",
	"tipo":        "tipos_movimiento.nombre",
	"metodo_pago": "metodos_pago.nombre",
}

// Sort is a listing order request.
type Sort struct {
	By  string
	Dir string
}

// Normalize maps unknown keys to fecha desc and unknown directions to desc.
func (s Sort) Normalize() Sort {
	by := strings.ToLower(strings.TrimSpace(s.By))
	if _, ok := sortColumns[by]; !ok {
		return Sort{By: DefaultSortKey, Dir: Desc}
	}
	dir := strings.ToLower(strings.TrimSpace(s.Dir))
	if dir != Asc {
		dir = Desc
	}
	return Sort{By: by, Dir: dir}
}

// Order applies the normalized sort to a query built from Base. Ties are
// broken by id in the same direction so pages are stable.
func Order(db *gorm.DB, s Sort) *gorm.DB {
	s = s.Normalize()
	return db.Order(sortColumns[s.By] + " " + s.Dir).Order("movimientos.id " + s.Dir)
}
