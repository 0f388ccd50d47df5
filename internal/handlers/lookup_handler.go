package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

// NameRequest is the payload for creating or renaming a payment method or a
// movement type.
type NameRequest struct {
	Name string `json:"nombre" binding:"required,notblank,max=100"`
}

// PaymentMethodHandler handles payment method requests.
type PaymentMethodHandler struct {
	paymentMethodService services.PaymentMethodServicer
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(paymentMethodService services.PaymentMethodServicer) *PaymentMethodHandler {
	return &PaymentMethodHandler{paymentMethodService: paymentMethodService}
}

// CreatePaymentMethod creates a payment method
// @Summary     Create a payment method
// @Tags        metodos-pago
// @Accept      json
// @Produce     json
// @Param       request body NameRequest true "Payment method"
// @Success     201 {object} models.PaymentMethod
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /metodos-pago [post]
func (h *PaymentMethodHandler) CreatePaymentMethod(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pm, err := h.paymentMethodService.CreatePaymentMethod(req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"metodo_pago": pm})
}

// ListPaymentMethods lists payment methods
// @Summary     List payment methods
// @Tags        metodos-pago
// @Produce     json
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.PaymentMethod]
// @Router      /metodos-pago [get]
func (h *PaymentMethodHandler) ListPaymentMethods(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.paymentMethodService.ListPaymentMethods(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPaymentMethodByID gets a payment method
// @Summary     Get payment method by ID
// @Tags        metodos-pago
// @Produce     json
// @Param       id path int true "Payment method ID"
// @Success     200 {object} models.PaymentMethod
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /metodos-pago/{id} [get]
func (h *PaymentMethodHandler) GetPaymentMethodByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	pm, err := h.paymentMethodService.GetPaymentMethodByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metodo_pago": pm})
}

// UpdatePaymentMethod renames a payment method
// @Summary     Update payment method
// @Tags        metodos-pago
// @Accept      json
// @Produce     json
// @Param       id      path int         true "Payment method ID"
// @Param       request body NameRequest true "New name"
// @Success     200 {object} models.PaymentMethod
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /metodos-pago/{id} [put]
func (h *PaymentMethodHandler) UpdatePaymentMethod(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pm, err := h.paymentMethodService.UpdatePaymentMethod(id, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metodo_pago": pm})
}

// DeletePaymentMethod deletes an unused payment method
// @Summary     Delete payment method
// @Tags        metodos-pago
// @Param       id path int true "Payment method ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "In use"
// @Router      /metodos-pago/{id} [delete]
func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentMethodService.DeletePaymentMethod(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MovementTypeHandler handles movement type requests.
type MovementTypeHandler struct {
	movementTypeService services.MovementTypeServicer
}

// NewMovementTypeHandler creates a new MovementTypeHandler.
func NewMovementTypeHandler(movementTypeService services.MovementTypeServicer) *MovementTypeHandler {
	return &MovementTypeHandler{movementTypeService: movementTypeService}
}

// CreateMovementType creates a movement type
// @Summary     Create a movement type
// @Tags        tipos
// @Accept      json
// @Produce     json
// @Param       request body NameRequest true "Movement type"
// @Success     201 {object} models.MovementType
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /tipos [post]
func (h *MovementTypeHandler) CreateMovementType(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	mt, err := h.movementTypeService.CreateMovementType(req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tipo": mt})
}

// ListMovementTypes lists movement types
// @Summary     List movement types
// @Tags        tipos
// @Produce     json
// @Success     200 {object} pagination.PageResponse[models.MovementType]
// @Router      /tipos [get]
func (h *MovementTypeHandler) ListMovementTypes(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.movementTypeService.ListMovementTypes(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMovementTypeByID gets a movement type
// @Summary     Get movement type by ID
// @Tags        tipos
// @Produce     json
// @Param       id path int true "Movement type ID"
// @Success     200 {object} models.MovementType
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /tipos/{id} [get]
func (h *MovementTypeHandler) GetMovementTypeByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	mt, err := h.movementTypeService.GetMovementTypeByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tipo": mt})
}

// UpdateMovementType renames a movement type
// @Summary     Update movement type
// @Tags        tipos
// @Accept      json
// @Produce     json
// @Param       id      path int         true "Movement type ID"
// @Param       request body NameRequest true "New name"
// @Success     200 {object} models.MovementType
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /tipos/{id} [put]
func (h *MovementTypeHandler) UpdateMovementType(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	mt, err := h.movementTypeService.UpdateMovementType(id, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tipo": mt})
}

// DeleteMovementType deletes an unused movement type
// @Summary     Delete movement type
// @Tags        tipos
// @Param       id path int true "Movement type ID"
// @Success     204 "Deleted"
// @Failure     409 {object} ErrorResponse "In use"
// @Router      /tipos/{id} [delete]
func (h *MovementTypeHandler) DeleteMovementType(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.movementTypeService.DeleteMovementType(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
