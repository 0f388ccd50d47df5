package services

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/query"
	"gastos/internal/rules"
)

// TransactionInput carries every writable field of a transaction, used by
// manual create and full update.
type TransactionInput struct {
	Date            time.Time
	Description     string
	Amount          float64
	Balance         *float64
	Notes           *string
	TypeID          *uint
	CategoryID      *uint
	PaymentMethodID *uint
}

// InlineUpdate is a partial update. A nil field is left unchanged. For the
// reference fields a pointer to 0 clears the reference; an empty Notes
// string clears the notes.
type InlineUpdate struct {
	Date            *time.Time
	Description     *string
	Amount          *float64
	Balance         *float64
	Notes           *string
	TypeID          *uint
	CategoryID      *uint
	PaymentMethodID *uint
}

// TransactionList is a page of transactions plus aggregates over every row
// matched by the filter.
type TransactionList struct {
	pagination.PageResponse[models.Transaction]
	Totals query.Totals `json:"totales"`
}

// ExportHeader is the column order of the CSV export.
var ExportHeader = []string{"fecha", "concepto", "importe", "saldo", "tipo", "categoria", "metodo_pago", "notas"}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction creates a transaction and runs the rule engine on it.
func (s *transactionService) CreateTransaction(input TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(&input); err != nil {
		return nil, err
	}

	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, input.TypeID, input.CategoryID, input.PaymentMethodID); err != nil {
			return err
		}

		t := &models.Transaction{}
		input.assign(t)
		if err := applyStoredRules(tx, t); err != nil {
			return err
		}
		if err := tx.Create(t).Error; err != nil {
			return persistError(err)
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransactionByID(result.ID)
}

// GetTransactionByID retrieves a transaction with its lookups preloaded.
func (s *transactionService) GetTransactionByID(transactionID uint) (*models.Transaction, error) {
	return findTransaction(s.db, transactionID)
}

// UpdateTransaction replaces every writable field and re-runs the rule engine.
func (s *transactionService) UpdateTransaction(transactionID uint, input TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(&input); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := loadTransaction(tx, transactionID)
		if err != nil {
			return err
		}
		if err := checkReferences(tx, input.TypeID, input.CategoryID, input.PaymentMethodID); err != nil {
			return err
		}

		input.assign(t)
		if err := applyStoredRules(tx, t); err != nil {
			return err
		}
		if err := tx.Save(t).Error; err != nil {
			return persistError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransactionByID(transactionID)
}

// InlineUpdateTransaction applies a partial update. Each field is validated
// on its own; a missing referenced record rejects only that field, the other
// fields are still saved, and the updated transaction is returned together
// with ErrReferenceNotFound. Rules are not re-run.
func (s *transactionService) InlineUpdateTransaction(transactionID uint, update InlineUpdate) (*models.Transaction, error) {
	if update.Amount != nil && *update.Amount == 0 {
		return nil, apperrors.ErrZeroAmount
	}
	if update.Description != nil && strings.TrimSpace(*update.Description) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "concepto cannot be empty")
	}

	var rejected []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := loadTransaction(tx, transactionID)
		if err != nil {
			return err
		}

		if update.Date != nil {
			t.Date = *update.Date
		}
		if update.Description != nil {
			t.Description = strings.TrimSpace(*update.Description)
		}
		if update.Amount != nil {
			t.Amount = *update.Amount
		}
		if update.Balance != nil {
			t.Balance = update.Balance
		}
		if update.Notes != nil {
			if *update.Notes == "" {
				t.Notes = nil
			} else {
				t.Notes = update.Notes
			}
		}

		refs := []struct {
			name  string
			value *uint
			model any
			dest  **uint
		}{
			{"tipo_id", update.TypeID, &models.MovementType{}, &t.TypeID},
			{"categoria_id", update.CategoryID, &models.Category{}, &t.CategoryID},
			{"metodo_pago_id", update.PaymentMethodID, &models.PaymentMethod{}, &t.PaymentMethodID},
		}
		for _, ref := range refs {
			if ref.value == nil {
				continue
			}
			if *ref.value == 0 {
				*ref.dest = nil
				continue
			}
			ok, err := exists(tx, ref.model, *ref.value)
			if err != nil {
				return err
			}
			if !ok {
				rejected = append(rejected, ref.name)
				continue
			}
			id := *ref.value
			*ref.dest = &id
		}

		// Associations are not loaded, so Save only writes the row itself.
		if err := tx.Save(t).Error; err != nil {
			return persistError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		return updated, apperrors.WithMessage(apperrors.ErrReferenceNotFound,
			"no existe el registro referenciado por: "+strings.Join(rejected, ", "))
	}
	return updated, nil
}

// DeleteTransaction deletes a transaction by ID.
func (s *transactionService) DeleteTransaction(transactionID uint) error {
	t, err := loadTransaction(s.db, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(t).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListTransactions returns one page of filtered, sorted transactions and the
// aggregates over the whole filtered set.
func (s *transactionService) ListTransactions(filter query.MovementFilter, sort query.Sort, page pagination.PageRequest) (*TransactionList, error) {
	page.Defaults()
	preds := filter.Predicates()

	var totalItems int64
	if err := query.Apply(query.Base(s.db), preds).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Transaction
	q := query.Apply(query.Base(s.db), preds).
		Select("movimientos.*").
		Preload("Type").Preload("Category").Preload("PaymentMethod")
	if err := query.Order(q, sort).Scopes(pagination.Paginate(page)).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals, err := query.Aggregate(s.db, preds)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &TransactionList{
		PageResponse: pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems),
		Totals:       *totals,
	}, nil
}

type exportRow struct {
	Fecha      time.Time
	Concepto   string
	Importe    float64
	Saldo      *float64
	Tipo       *string
	Categoria  *string
	MetodoPago *string
	Notas      *string
}

// ExportTransactions streams every filtered transaction as CSV, newest first,
// and returns the number of data rows written.
func (s *transactionService) ExportTransactions(filter query.MovementFilter, w io.Writer) (int, error) {
	q := query.Apply(query.Base(s.db), filter.Predicates()).
		Select(`movimientos.fecha AS fecha,
			movimientos.concepto AS concepto,
			movimientos.importe AS importe,
			movimientos.saldo AS saldo,
			tipos_movimiento.nombre AS tipo,
			categorias.nombre AS categoria,
			metodos_pago.nombre AS metodo_pago,
			movimientos.notas AS notas`)

	rows, err := query.Order(q, query.Sort{By: "fecha", Dir: query.Desc}).Rows()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, err
	}

	n := 0
	for rows.Next() {
		var row exportRow
		if err := s.db.ScanRows(rows, &row); err != nil {
			return n, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		record := []string{
			row.Fecha.Format("2006-01-02"),
			row.Concepto,
			formatAmount(row.Importe),
			"",
			deref(row.Tipo),
			deref(row.Categoria),
			deref(row.MetodoPago),
			deref(row.Notas),
		}
		if row.Saldo != nil {
			record[3] = formatAmount(*row.Saldo)
		}
		if err := cw.Write(record); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	cw.Flush()
	return n, cw.Error()
}

func (in TransactionInput) assign(t *models.Transaction) {
	t.Date = in.Date
	t.Description = in.Description
	t.Amount = in.Amount
	t.Balance = in.Balance
	t.Notes = in.Notes
	t.TypeID = in.TypeID
	t.CategoryID = in.CategoryID
	t.PaymentMethodID = in.PaymentMethodID
}

func validateTransactionInput(in *TransactionInput) error {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "concepto is required")
	}
	if in.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fecha is required")
	}
	if in.Amount == 0 {
		return apperrors.ErrZeroAmount
	}
	if in.Notes != nil && strings.TrimSpace(*in.Notes) == "" {
		in.Notes = nil
	}
	return nil
}

// checkReferences verifies that every non-nil lookup id exists.
func checkReferences(db *gorm.DB, typeID, categoryID, paymentMethodID *uint) error {
	refs := []struct {
		name  string
		id    *uint
		model any
	}{
		{"tipo_id", typeID, &models.MovementType{}},
		{"categoria_id", categoryID, &models.Category{}},
		{"metodo_pago_id", paymentMethodID, &models.PaymentMethod{}},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := exists(db, ref.model, *ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrReferenceNotFound,
				"no existe el registro referenciado por: "+ref.name)
		}
	}
	return nil
}

func exists(db *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// applyStoredRules runs every stored rule against t.
func applyStoredRules(db *gorm.DB, t *models.Transaction) error {
	ruleSet, err := loadRules(db)
	if err != nil {
		return err
	}
	rules.Apply(t, ruleSet)
	return nil
}

func loadTransaction(db *gorm.DB, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &t, nil
}

func findTransaction(db *gorm.DB, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := db.Preload("Type").Preload("Category").Preload("PaymentMethod").First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &t, nil
}

// persistError keeps the zero-amount error from the save hook and wraps
// anything else as internal.
func persistError(err error) error {
	if errors.Is(err, apperrors.ErrZeroAmount) {
		return apperrors.ErrZeroAmount
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
