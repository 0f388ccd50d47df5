package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBankFormat(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    BankFormat
	}{
		{"generic_wins_tie_with_bbva", []string{"fecha", "concepto", "importe"}, FormatGeneric},
		{"caixa", []string{"Fecha", "Fecha valor", "Movimiento", "Más datos", "Importe", "Saldo"}, FormatCaixa},
		{"santander", []string{"Fecha Operación", "Fecha Valor", "Concepto", "Importe", "Saldo", "Divisa"}, FormatSantander},
		{"bbva", []string{"F.Valor", "Fecha", "Concepto", "Movimiento", "Importe", "Divisa", "Disponible", "Observaciones"}, FormatBBVA},
		{"ing_uppercase", []string{"F. VALOR", "CATEGORÍA", "SUBCATEGORÍA", "DESCRIPCIÓN", "COMENTARIO", "IMAGEN", "IMPORTE (€)", "SALDO (€)"}, FormatING},
		{"no_keywords", []string{"a", "b"}, FormatGeneric},
		{"no_columns", nil, FormatGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBankFormat(tt.columns))
		})
	}
}

func TestDateFormats(t *testing.T) {
	assert.Equal(t, []string{"%d/%m/%Y", "%d-%m-%Y"}, DateFormats(FormatSantander))
	assert.Equal(t, DateFormats(FormatGeneric), DateFormats("unknown"))
}
