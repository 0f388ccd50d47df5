package csvimport

import "strings"

// BankFormat identifies the header layout of a bank's CSV export.
type BankFormat string

const (
	FormatGeneric   BankFormat = "generic"
	FormatCaixa     BankFormat = "caixa"
	FormatSantander BankFormat = "santander"
	FormatBBVA      BankFormat = "bbva"
	FormatING       BankFormat = "ing"
)

type profile struct {
	format      BankFormat
	keywords    []string
	dateFormats []string // strftime
}

// profiles are listed in enumeration order; earlier entries win score ties.
var profiles = []profile{
	{
		format:      FormatGeneric,
		keywords:    []string{"fecha", "concepto", "importe"},
		dateFormats: []string{"%Y-%m-%d", "%d/%m/%Y"},
	},
	{
		format:      FormatCaixa,
		keywords:    []string{"fecha valor", "movimiento", "más datos", "importe", "saldo"},
		dateFormats: []string{"%d/%m/%Y"},
	},
	{
		format:      FormatSantander,
		keywords:    []string{"fecha operación", "fecha valor", "concepto", "importe", "saldo", "divisa"},
		dateFormats: []string{"%d/%m/%Y", "%d-%m-%Y"},
	},
	{
		format:      FormatBBVA,
		keywords:    []string{"f.valor", "fecha", "concepto", "movimiento", "importe", "divisa", "disponible", "observaciones"},
		dateFormats: []string{"%d/%m/%Y"},
	},
	{
		format:      FormatING,
		keywords:    []string{"f. valor", "categoría", "subcategoría", "descripción", "comentario", "imagen", "importe (€)", "saldo (€)"},
		dateFormats: []string{"%d/%m/%Y"},
	},
}

// DetectBankFormat scores every profile by how many of its keywords occur
// (case-insensitive substring) in some column name. The highest score wins,
// ties go to the earlier profile and an all-zero score yields FormatGeneric.
func DetectBankFormat(columns []string) BankFormat {
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}

	best, bestScore := FormatGeneric, 0
	for _, p := range profiles {
		score := 0
		for _, kw := range p.keywords {
			for _, c := range lower {
				if strings.Contains(c, kw) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = p.format, score
		}
	}
	return best
}

// DateFormats returns the strftime date formats a bank is known to use.
// Unknown formats get the generic list.
func DateFormats(format BankFormat) []string {
	for _, p := range profiles {
		if p.format == format {
			return p.dateFormats
		}
	}
	return profiles[0].dateFormats
}
