package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"gastos/internal/csvimport"
	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/models"
	"gastos/internal/query"
	"gastos/internal/rules"
	"gastos/internal/uuid"

	"github.com/shopspring/decimal"
)

// Row error messages, reported in PreviewRow.Errors.
const (
	rowErrInvalidDate   = "Fecha inválida"
	rowErrInvalidAmount = "Importe inválido"
	rowErrZeroAmount    = "Importe no puede ser cero"
)

const maxExampleErrors = 5

// ImportOptions tune how mapped rows become transactions.
type ImportOptions struct {
	DefaultTypeID          *uint  `json:"default_tipo_id"`
	DefaultCategoryID      *uint  `json:"default_categoria_id"`
	DefaultPaymentMethodID *uint  `json:"default_metodo_pago_id"`
	DetectTypeBySign       bool   `json:"detectar_tipo_por_signo"`
	ApplyRules             bool   `json:"aplicar_reglas"`
	SkipDuplicates         bool   `json:"ignorar_duplicados"`
	CleanDescription       bool   `json:"limpiar_concepto"`
	DateFormat             string `json:"formato_fecha,omitempty"`
}

// DefaultImportOptions returns the options used when a request omits them.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		DetectTypeBySign: true,
		ApplyRules:       true,
		SkipDuplicates:   true,
		CleanDescription: true,
	}
}

// ImportRequest is the JSON payload sent next to the uploaded file.
type ImportRequest struct {
	Mapping csvimport.ColumnMapping `json:"mapping"`
	Options ImportOptions           `json:"options"`
}

// ParseImportRequest decodes a payload on top of the default options, so
// omitted booleans keep their defaults.
func ParseImportRequest(payload []byte) (ImportRequest, error) {
	req := ImportRequest{Options: DefaultImportOptions()}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return req, apperrors.ErrInvalidPayload
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, apperrors.Wrap(apperrors.ErrInvalidPayload, err)
	}
	return req, nil
}

// PreviewRow is one parsed row. Errors never abort the batch.
type PreviewRow struct {
	RawIndex        int        `json:"raw_index"`
	Date            *time.Time `json:"-"`
	Description     string     `json:"concepto"`
	Amount          *float64   `json:"importe"`
	Balance         *float64   `json:"saldo"`
	TypeID          *uint      `json:"tipo_id"`
	CategoryID      *uint      `json:"categoria_id"`
	PaymentMethodID *uint      `json:"metodo_pago_id"`
	Notes           *string    `json:"notas"`
	IsDuplicate     bool       `json:"is_duplicate"`
	Errors          []string   `json:"errors"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (r PreviewRow) MarshalJSON() ([]byte, error) {
	type alias PreviewRow
	var fecha *string
	if r.Date != nil {
		s := r.Date.Format("2006-01-02")
		fecha = &s
	}
	return json.Marshal(struct {
		Fecha *string `json:"fecha"`
		alias
	}{fecha, alias(r)})
}

// Valid reports whether the row has no errors.
func (r PreviewRow) Valid() bool { return len(r.Errors) == 0 }

// PreviewResult is the dry-run outcome of an import.
type PreviewResult struct {
	Rows            []PreviewRow `json:"rows"`
	TotalRows       int          `json:"total_rows"`
	ValidRows       int          `json:"valid_rows"`
	DuplicateRows   int          `json:"duplicate_rows"`
	ErrorRows       int          `json:"error_rows"`
	SummaryWarnings []string     `json:"summary_warnings"`
}

// ImportResult is the outcome of a committed import.
type ImportResult struct {
	Imported          int          `json:"imported"`
	SkippedDuplicates int          `json:"skipped_duplicates"`
	SkippedErrors     int          `json:"skipped_errors"`
	TotalRows         int          `json:"total_rows"`
	ExampleErrors     []PreviewRow `json:"examples_errors"`
	ImportBatchID     string       `json:"import_batch_id"`
}

// importService runs the analyze/preview/apply pipeline.
type importService struct {
	db *gorm.DB
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB) ImportServicer {
	return &importService{db: db}
}

// Analyze describes an uploaded file without touching the database.
func (s *importService) Analyze(raw []byte) (*csvimport.Analysis, error) {
	return csvimport.Analyze(raw)
}

// Preview parses every row with the given mapping and options and flags
// duplicates against the file itself and the stored transactions.
func (s *importService) Preview(raw []byte, req ImportRequest) (*PreviewResult, error) {
	table, err := readMapped(raw, req.Mapping)
	if err != nil {
		return nil, err
	}
	ruleSet, err := rulesFor(s.db, req.Options)
	if err != nil {
		return nil, err
	}
	return buildPreview(s.db, table, req, ruleSet)
}

// Apply imports every valid row in one database transaction. Duplicates are
// skipped when SkipDuplicates is set. Either every row is stored or none is.
func (s *importService) Apply(raw []byte, req ImportRequest) (*ImportResult, error) {
	table, err := readMapped(raw, req.Mapping)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	result := &ImportResult{ImportBatchID: batchID, ExampleErrors: []PreviewRow{}}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ruleSet, err := rulesFor(tx, req.Options)
		if err != nil {
			return err
		}
		preview, err := buildPreview(tx, table, req, ruleSet)
		if err != nil {
			return err
		}
		result.TotalRows = preview.TotalRows

		for _, row := range preview.Rows {
			if !row.Valid() {
				result.SkippedErrors++
				if len(result.ExampleErrors) < maxExampleErrors {
					result.ExampleErrors = append(result.ExampleErrors, row)
				}
				continue
			}
			if row.IsDuplicate && req.Options.SkipDuplicates {
				result.SkippedDuplicates++
				continue
			}

			t := &models.Transaction{
				Date:            *row.Date,
				Description:     row.Description,
				Amount:          *row.Amount,
				Balance:         row.Balance,
				Notes:           row.Notes,
				TypeID:          row.TypeID,
				CategoryID:      row.CategoryID,
				PaymentMethodID: row.PaymentMethodID,
				ImportBatchID:   &batchID,
			}
			if req.Options.ApplyRules {
				rules.Apply(t, ruleSet)
			}
			if err := tx.Create(t).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrImportNotCommit, err)
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("import").Infow("import applied",
		"batch_id", batchID,
		"imported", result.Imported,
		"skipped_duplicates", result.SkippedDuplicates,
		"skipped_errors", result.SkippedErrors,
	)
	return result, nil
}

// RevertBatch deletes every transaction created by one import apply.
func (s *importService) RevertBatch(batchID string) (int64, error) {
	if !uuid.IsValid(batchID) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid import batch id")
	}

	res := s.db.Where("import_batch_id = ?", batchID).Delete(&models.Transaction{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrNotFound, "no hay movimientos con ese lote de importación")
	}

	logger.Named("import").Infow("import batch reverted", "batch_id", batchID, "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}

func readMapped(raw []byte, mapping csvimport.ColumnMapping) (*csvimport.Table, error) {
	table, err := csvimport.Read(raw)
	if err != nil {
		return nil, err
	}
	if err := mapping.Validate(table); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return table, nil
}

// rulesFor loads the rule set when the options ask for rule application.
func rulesFor(db *gorm.DB, opts ImportOptions) ([]models.Rule, error) {
	if !opts.ApplyRules {
		return nil, nil
	}
	return loadRules(db)
}

// buildPreview parses every row of table. Stored duplicates are looked up
// through db so Apply can run it inside its transaction.
func buildPreview(db *gorm.DB, table *csvimport.Table, req ImportRequest, ruleSet []models.Rule) (*PreviewResult, error) {
	format := csvimport.DetectBankFormat(table.Columns)
	opts := req.Options

	result := &PreviewResult{
		Rows:            make([]PreviewRow, 0, len(table.Rows)),
		TotalRows:       len(table.Rows),
		SummaryWarnings: []string{},
	}
	seen := make(map[string]bool)
	fileDuplicates := 0

	for i, cells := range table.Rows {
		row := parseRow(table, cells, req.Mapping, opts, format)
		row.RawIndex = i

		if opts.ApplyRules && row.Valid() {
			candidate := &models.Transaction{Description: row.Description, Notes: row.Notes, CategoryID: row.CategoryID}
			rules.Apply(candidate, ruleSet)
			row.CategoryID = candidate.CategoryID
		}

		// the duplicate key needs both date and amount
		if row.Date != nil && row.Amount != nil {
			key := duplicateKey(*row.Date, row.Description, *row.Amount)
			if seen[key] {
				row.IsDuplicate = true
				fileDuplicates++
			} else {
				seen[key] = true
				stored, err := isStoredDuplicate(db, *row.Date, row.Description, *row.Amount)
				if err != nil {
					return nil, err
				}
				row.IsDuplicate = stored
			}
		}

		if row.Valid() {
			result.ValidRows++
		} else {
			result.ErrorRows++
		}
		if row.IsDuplicate {
			result.DuplicateRows++
		}
		result.Rows = append(result.Rows, row)
	}

	result.SummaryWarnings = append(result.SummaryWarnings, fmt.Sprintf("Formato bancario detectado: %s", format))
	if fileDuplicates > 0 {
		result.SummaryWarnings = append(result.SummaryWarnings,
			fmt.Sprintf("%d filas duplicadas dentro del propio fichero", fileDuplicates))
	}
	return result, nil
}

// parseRow runs the per-row pipeline. Failures are collected in Errors and
// later steps continue with nil values.
func parseRow(table *csvimport.Table, cells []string, m csvimport.ColumnMapping, opts ImportOptions, format csvimport.BankFormat) PreviewRow {
	row := PreviewRow{Errors: []string{}}

	if d, err := csvimport.ParseDate(table.Cell(cells, m.FechaCol), opts.DateFormat, format); err == nil {
		row.Date = &d
	} else {
		row.Errors = append(row.Errors, rowErrInvalidDate)
	}

	row.Description = csvimport.CleanDescription(table.Cell(cells, m.ConceptoCol), opts.CleanDescription)

	if amount, err := rowAmount(table, cells, m); err != nil {
		row.Errors = append(row.Errors, rowErrInvalidAmount)
	} else if amount.IsZero() {
		row.Errors = append(row.Errors, rowErrZeroAmount)
	} else {
		f := amount.InexactFloat64()
		row.Amount = &f
	}

	if m.SaldoCol != "" {
		if b, err := csvimport.ParseAmount(table.Cell(cells, m.SaldoCol)); err == nil {
			row.Balance = &b
		}
	}
	if m.NotasCol != "" {
		if n := table.Cell(cells, m.NotasCol); n != "" {
			row.Notes = &n
		}
	}

	if opts.DetectTypeBySign && row.Amount != nil {
		typeID := models.MovementTypeIncomeID
		if *row.Amount < 0 {
			typeID = models.MovementTypeExpenseID
		}
		row.TypeID = &typeID
	} else {
		row.TypeID = opts.DefaultTypeID
	}
	row.CategoryID = opts.DefaultCategoryID
	row.PaymentMethodID = opts.DefaultPaymentMethodID
	return row
}

// rowAmount reads the amount column, or haber minus debe with empty sides
// counted as zero.
func rowAmount(table *csvimport.Table, cells []string, m csvimport.ColumnMapping) (decimal.Decimal, error) {
	if m.ImporteCol != "" {
		return csvimport.ParseDecimal(table.Cell(cells, m.ImporteCol))
	}

	side := func(col string) (decimal.Decimal, error) {
		v := table.Cell(cells, col)
		if v == "" {
			return decimal.Zero, nil
		}
		return csvimport.ParseDecimal(v)
	}
	debit, err := side(m.DebeCol)
	if err != nil {
		return decimal.Zero, err
	}
	credit, err := side(m.HaberCol)
	if err != nil {
		return decimal.Zero, err
	}
	return credit.Sub(debit), nil
}

func duplicateKey(date time.Time, description string, amount float64) string {
	return fmt.Sprintf("%s|%s|%v", date.Format("2006-01-02"), strings.ToLower(description), amount)
}

func isStoredDuplicate(db *gorm.DB, date time.Time, description string, amount float64) (bool, error) {
	var count int64
	err := query.Apply(query.Base(db), []query.Predicate{
		{Field: query.FieldDate, Op: query.OpEq, Value: models.DateOnly(date)},
		{Field: query.FieldAmount, Op: query.OpEq, Value: amount},
		{Field: query.FieldDescription, Op: query.OpEqFold, Value: description},
	}).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}
