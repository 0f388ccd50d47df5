package csvimport

import (
	"fmt"
	"strings"
)

// ColumnMapping binds logical roles to source column names. Amount comes from
// ImporteCol when set, otherwise from HaberCol minus DebeCol.
type ColumnMapping struct {
	FechaCol    string `json:"fecha_col"`
	ConceptoCol string `json:"concepto_col"`
	ImporteCol  string `json:"importe_col,omitempty"`
	DebeCol     string `json:"debe_col,omitempty"`
	HaberCol    string `json:"haber_col,omitempty"`
	SaldoCol    string `json:"saldo_col,omitempty"`
	NotasCol    string `json:"notas_col,omitempty"`
}

// HasAmount reports whether the mapping can resolve an amount.
func (m ColumnMapping) HasAmount() bool {
	return m.ImporteCol != "" || m.DebeCol != "" || m.HaberCol != ""
}

// Validate checks that the required roles are set and that every mapped
// column exists in the table.
func (m ColumnMapping) Validate(t *Table) error {
	if m.FechaCol == "" || m.ConceptoCol == "" {
		return fmt.Errorf("fecha_col y concepto_col son obligatorios")
	}
	if !m.HasAmount() {
		return fmt.Errorf("se requiere importe_col o debe_col/haber_col")
	}
	for _, col := range []string{m.FechaCol, m.ConceptoCol, m.ImporteCol, m.DebeCol, m.HaberCol, m.SaldoCol, m.NotasCol} {
		if col != "" && !t.Has(col) {
			return fmt.Errorf("la columna %q no existe en el CSV", col)
		}
	}
	return nil
}

// roleKeywords drives SuggestMapping. Order of roles does not matter; order of
// columns does: the first column containing any keyword wins.
var roleKeywords = []struct {
	role     string
	keywords []string
}{
	{"fecha", []string{"fecha"}},
	{"concepto", []string{"concepto", "descr"}},
	{"importe", []string{"importe", "amount"}},
	{"debe", []string{"debe", "cargo"}},
	{"haber", []string{"haber", "abono"}},
	{"saldo", []string{"saldo", "balance"}},
	{"notas", []string{"notas", "detalle"}},
}

// SuggestMapping guesses a mapping from header names. Unmatched roles stay
// empty except fecha and concepto, which fall back to the first column.
func SuggestMapping(columns []string) ColumnMapping {
	found := suggestRoles(columns)
	m := ColumnMapping{
		FechaCol:    found["fecha"],
		ConceptoCol: found["concepto"],
		ImporteCol:  found["importe"],
		DebeCol:     found["debe"],
		HaberCol:    found["haber"],
		SaldoCol:    found["saldo"],
		NotasCol:    found["notas"],
	}
	if len(columns) > 0 {
		if m.FechaCol == "" {
			m.FechaCol = columns[0]
		}
		if m.ConceptoCol == "" {
			m.ConceptoCol = columns[0]
		}
	}
	return m
}

func suggestRoles(columns []string) map[string]string {
	found := make(map[string]string, len(roleKeywords))
	for _, rk := range roleKeywords {
		for _, col := range columns {
			if containsAny(strings.ToLower(col), rk.keywords) {
				found[rk.role] = col
				break
			}
		}
	}
	return found
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
