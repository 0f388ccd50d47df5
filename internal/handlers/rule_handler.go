package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

// RuleHandler handles auto-categorization rule requests.
type RuleHandler struct {
	ruleService  services.RuleServicer
	auditService services.AuditServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer, auditService services.AuditServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService, auditService: auditService}
}

// CreateRule creates a rule
// @Summary     Create a rule
// @Tags        reglas
// @Accept      json
// @Produce     json
// @Param       request body services.RuleInput true "Rule"
// @Success     201 {object} models.Rule
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /reglas [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req services.RuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"regla": rule})
}

// ListRules lists rules in evaluation order
// @Summary     List rules
// @Tags        reglas
// @Produce     json
// @Param       categoria_id query int false "Only rules for this category"
// @Param       page         query int false "Page number"
// @Param       page_size    query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Rule]
// @Router      /reglas [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var categoryID *uint
	if v := c.Query("categoria_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid categoria_id"))
			return
		}
		cid := uint(id)
		categoryID = &cid
	}

	result, err := h.ruleService.ListRules(categoryID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRuleByID gets a rule
// @Summary     Get rule by ID
// @Tags        reglas
// @Produce     json
// @Param       id path int true "Rule ID"
// @Success     200 {object} models.Rule
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /reglas/{id} [get]
func (h *RuleHandler) GetRuleByID(c *gin.Context) {
	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.GetRuleByID(ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"regla": rule})
}

// UpdateRule replaces a rule
// @Summary     Update rule
// @Tags        reglas
// @Accept      json
// @Produce     json
// @Param       id      path int               true "Rule ID"
// @Param       request body services.RuleInput true "Rule"
// @Success     200 {object} models.Rule
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rule or category not found"
// @Router      /reglas/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.RuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(ruleID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"regla": rule})
}

// DeleteRule deletes a rule
// @Summary     Delete rule
// @Tags        reglas
// @Param       id path int true "Rule ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /reglas/{id} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ruleService.DeleteRule(ruleID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditDeleteRule, "rule", ruleID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ReapplyRulesResponse is the result of a bulk reapplication.
type ReapplyRulesResponse struct {
	Updated int `json:"actualizados"`
}

// ReapplyRules runs every rule over every transaction
// @Summary     Reapply rules
// @Description Re-runs all rules over all transactions and returns how many changed category
// @Tags        reglas
// @Produce     json
// @Success     200 {object} ReapplyRulesResponse
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reglas/reaplicar [post]
func (h *RuleHandler) ReapplyRules(c *gin.Context) {
	updated, err := h.ruleService.ReapplyRules()
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditRulesReapply, "rule", 0, c.ClientIP(), map[string]any{"actualizados": updated})

	c.JSON(http.StatusOK, ReapplyRulesResponse{Updated: updated})
}
