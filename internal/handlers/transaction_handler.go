package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest is the payload for manual create and full update.
type TransactionRequest struct {
	Date            string   `json:"fecha" binding:"required"`
	Description     string   `json:"concepto" binding:"required,notblank,max=500"`
	Amount          float64  `json:"importe"`
	Balance         *float64 `json:"saldo"`
	Notes           *string  `json:"notas"`
	TypeID          *uint    `json:"tipo_id"`
	CategoryID      *uint    `json:"categoria_id"`
	PaymentMethodID *uint    `json:"metodo_pago_id"`
}

func (r TransactionRequest) toInput() (services.TransactionInput, error) {
	date, err := parseFlexibleTime(r.Date)
	if err != nil {
		return services.TransactionInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.TransactionInput{
		Date:            date,
		Description:     r.Description,
		Amount:          r.Amount,
		Balance:         r.Balance,
		Notes:           r.Notes,
		TypeID:          r.TypeID,
		CategoryID:      r.CategoryID,
		PaymentMethodID: r.PaymentMethodID,
	}, nil
}

// optionalID distinguishes an absent key from an explicit null.
type optionalID struct {
	set bool
	id  *uint
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.id = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.id = &id
	return nil
}

// value maps the field to the service convention: nil leaves the reference
// unchanged, a pointer to 0 clears it.
func (o optionalID) value() *uint {
	if !o.set {
		return nil
	}
	if o.id == nil {
		zero := uint(0)
		return &zero
	}
	return o.id
}

// InlineUpdateRequest is the payload of a partial update. Only the keys
// present are applied; null clears a reference and "" clears the notes.
type InlineUpdateRequest struct {
	Date            *string    `json:"fecha"`
	Description     *string    `json:"concepto" binding:"omitempty,notblank,max=500"`
	Amount          *float64   `json:"importe"`
	Balance         *float64   `json:"saldo"`
	Notes           *string    `json:"notas"`
	TypeID          optionalID `json:"tipo_id" swaggertype:"integer"`
	CategoryID      optionalID `json:"categoria_id" swaggertype:"integer"`
	PaymentMethodID optionalID `json:"metodo_pago_id" swaggertype:"integer"`
}

// CreateTransaction creates a transaction
// @Summary     Create a transaction
// @Description Creates a transaction and runs the auto-categorization rules on it
// @Tags        movimientos
// @Accept      json
// @Produce     json
// @Param       request body TransactionRequest true "Transaction"
// @Success     201 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Referenced record not found"
// @Router      /movimientos [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"movimiento": transaction})
}

// ListTransactions lists transactions with filters, sorting and aggregates
// @Summary     List transactions
// @Tags        movimientos
// @Produce     json
// @Param       fecha_desde           query string false "From date (inclusive)"
// @Param       fecha_hasta           query string false "To date (inclusive)"
// @Param       categoria_ids         query string false "Comma-separated category ids"
// @Param       tipo_ids              query string false "Comma-separated type ids"
// @Param       metodo_pago_ids       query string false "Comma-separated payment method ids"
// @Param       importe_min           query number false "Minimum amount (inclusive)"
// @Param       importe_max           query number false "Maximum amount (inclusive)"
// @Param       busqueda              query string false "Case-insensitive search over concepto and notas"
// @Param       solo_gastos_fijos     query bool   false "Only fixed categories"
// @Param       solo_gastos_variables query bool   false "Only variable categories"
// @Param       sort_by               query string false "fecha, importe, categoria, tipo, metodo_pago or concepto"
// @Param       sort_dir              query string false "asc or desc"
// @Param       page                  query int    false "Page number"
// @Param       page_size             query int    false "Page size (max 200)"
// @Success     200 {object} services.TransactionList
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /movimientos [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(filter, parseSort(c), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportTransactions streams the filtered transactions as CSV
// @Summary     Export transactions
// @Tags        movimientos
// @Produce     text/csv
// @Param       fecha_desde query string false "From date (inclusive)"
// @Param       fecha_hasta query string false "To date (inclusive)"
// @Success     200 {string} string "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /movimientos/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="movimientos.csv"`)
	c.Status(http.StatusOK)

	n, err := h.transactionService.ExportTransactions(filter, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			respondWithError(c, err)
			return
		}
		logger.Get().Errorw("export interrupted", "error", err, "rows", n)
	}
}

// GetTransactionByID gets a transaction
// @Summary     Get transaction by ID
// @Tags        movimientos
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /movimientos/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movimiento": transaction})
}

// UpdateTransaction replaces a transaction
// @Summary     Update transaction
// @Description Full update; the auto-categorization rules run again
// @Tags        movimientos
// @Accept      json
// @Produce     json
// @Param       id      path int                true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /movimientos/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(transactionID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditUpdateTransaction, "transaction", transactionID, c.ClientIP(),
		map[string]any{"importe": input.Amount, "fecha": req.Date})

	c.JSON(http.StatusOK, gin.H{"movimiento": transaction})
}

// InlineUpdateTransaction applies a partial update
// @Summary     Inline update transaction
// @Description Applies only the fields present. A missing referenced record rejects that field with 422 and returns the transaction with the other fields applied.
// @Tags        movimientos
// @Accept      json
// @Produce     json
// @Param       id      path int                 true "Transaction ID"
// @Param       request body InlineUpdateRequest true "Fields to update"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     422 {object} ErrorResponse "Referenced record not found"
// @Router      /movimientos/{id} [patch]
func (h *TransactionHandler) InlineUpdateTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InlineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.InlineUpdate{
		Description:     req.Description,
		Amount:          req.Amount,
		Balance:         req.Balance,
		Notes:           req.Notes,
		TypeID:          req.TypeID.value(),
		CategoryID:      req.CategoryID.value(),
		PaymentMethodID: req.PaymentMethodID.value(),
	}
	if req.Date != nil {
		date, err := parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		update.Date = &date
	}

	transaction, err := h.transactionService.InlineUpdateTransaction(transactionID, update)
	if err != nil && !(transaction != nil && errors.Is(err, apperrors.ErrReferenceNotFound)) {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditInlineUpdate, "transaction", transactionID, c.ClientIP(), inlineChanges(req))

	if err != nil {
		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		body := errorBody(appErr)
		body["movimiento"] = transaction
		c.JSON(appErr.StatusCode, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movimiento": transaction})
}

func inlineChanges(req InlineUpdateRequest) map[string]any {
	changes := map[string]any{}
	if req.Date != nil {
		changes["fecha"] = *req.Date
	}
	if req.Description != nil {
		changes["concepto"] = *req.Description
	}
	if req.Amount != nil {
		changes["importe"] = *req.Amount
	}
	if req.Notes != nil {
		changes["notas"] = *req.Notes
	}
	for name, ref := range map[string]optionalID{
		"tipo_id":        req.TypeID,
		"categoria_id":   req.CategoryID,
		"metodo_pago_id": req.PaymentMethodID,
	} {
		if ref.set {
			changes[name] = ref.id
		}
	}
	return changes
}

// DeleteTransaction deletes a transaction
// @Summary     Delete transaction
// @Tags        movimientos
// @Param       id path int true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /movimientos/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
