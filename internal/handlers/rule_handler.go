package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendlens/internal/services"
)

// RuleHandler handles merchant rule requests.
type RuleHandler struct {
	ruleService services.RuleServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// UpsertRuleRequest represents the request payload for saving a merchant rule.
type UpsertRuleRequest struct {
	Keyword  string `json:"keyword" binding:"required,not_blank,max=100"`
	Category string `json:"category" binding:"required,not_blank,max=100"`
}

// GetRules handles listing the user's merchant rules.
// @Summary     Get merchant rules
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.MerchantRule "Rules ordered by keyword"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [get]
func (h *RuleHandler) GetRules(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.ruleService.ListRules(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// UpsertRule handles creating or replacing a merchant rule.
// @Summary     Save a merchant rule
// @Description Map a description keyword to a category; an existing rule for the keyword is replaced
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpsertRuleRequest true "Keyword and category"
// @Success     200 {object} models.MerchantRule "Saved rule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [put]
func (h *RuleHandler) UpsertRule(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	rule, err := h.ruleService.UpsertRule(scope, req.Keyword, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles deleting a merchant rule.
// @Summary     Delete a merchant rule
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} map[string]string "Rule deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ruleService.DeleteRule(scope, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}
