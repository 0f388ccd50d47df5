package csvimport

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	sampleSize      = 5
	nearMissMaxDist = 2
)

// Analysis is the read-only summary of an uploaded file.
type Analysis struct {
	Format           BankFormat           `json:"format"`
	Columns          []string             `json:"columns"`
	Sample           []map[string]*string `json:"sample"`
	SuggestedMapping ColumnMapping        `json:"suggested_mapping"`
	Warnings         []string             `json:"warnings"`
	Separator        string               `json:"separator"`
	Encoding         string               `json:"encoding"`
}

// Analyze decodes raw and describes it: detected bank format, columns, the
// first rows as column→value maps (empty cells are nil), a suggested mapping
// and warnings about that suggestion.
func Analyze(raw []byte) (*Analysis, error) {
	table, err := Read(raw)
	if err != nil {
		return nil, err
	}

	mapping := SuggestMapping(table.Columns)
	return &Analysis{
		Format:           DetectBankFormat(table.Columns),
		Columns:          table.Columns,
		Sample:           Sample(table, sampleSize),
		SuggestedMapping: mapping,
		Warnings:         mappingWarnings(table.Columns, mapping),
		Separator:        string(table.Delimiter),
		Encoding:         table.Encoding,
	}, nil
}

// Sample returns up to n rows keyed by column name.
func Sample(t *Table, n int) []map[string]*string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]*string, 0, n)
	for _, row := range t.Rows[:n] {
		m := make(map[string]*string, len(t.Columns))
		for _, col := range t.Columns {
			if _, seen := m[col]; seen {
				continue
			}
			if v := t.Cell(row, col); v != "" {
				m[col] = &v
			} else {
				m[col] = nil
			}
		}
		out = append(out, m)
	}
	return out
}

func mappingWarnings(columns []string, m ColumnMapping) []string {
	warnings := []string{}
	if len(columns) == 0 {
		return warnings
	}

	found := suggestRoles(columns)
	if !m.HasAmount() {
		warnings = append(warnings, "No se encontró columna de importe ni columnas debe/haber")
	}
	if found["fecha"] == "" {
		warnings = append(warnings, fmt.Sprintf("No se encontró columna de fecha; se usa %q", columns[0]))
	}
	if found["concepto"] == "" {
		warnings = append(warnings, fmt.Sprintf("No se encontró columna de concepto; se usa %q", columns[0]))
	}

	mapped := map[string]bool{}
	for _, col := range found {
		mapped[col] = true
	}
	for _, rk := range roleKeywords {
		if found[rk.role] != "" {
			continue
		}
		for _, col := range columns {
			if mapped[col] {
				continue
			}
			if kw, ok := nearMiss(strings.ToLower(col), rk.keywords); ok {
				warnings = append(warnings, fmt.Sprintf("La columna %q se parece a %q; revisa el mapeo", col, kw))
			}
		}
	}
	return warnings
}

func nearMiss(col string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if d := levenshtein.ComputeDistance(col, kw); d > 0 && d <= nearMissMaxDist {
			return kw, true
		}
	}
	return "", false
}
