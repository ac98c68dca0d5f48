package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendlens/internal/services"
)

// CorrectionHandler handles bulk category corrections.
type CorrectionHandler struct {
	correctionService services.CorrectionServicer
}

// NewCorrectionHandler creates a new CorrectionHandler.
func NewCorrectionHandler(correctionService services.CorrectionServicer) *CorrectionHandler {
	return &CorrectionHandler{correctionService: correctionService}
}

// BulkCorrectionRequest represents a "recategorize all similar" request.
type BulkCorrectionRequest struct {
	Pattern  string `json:"pattern" binding:"required,not_blank,max=100"`
	Category string `json:"category" binding:"required,not_blank,max=100"`
	Mode     string `json:"mode" binding:"required,correction_mode"`
}

// ApplyBulkCorrection handles previewing or executing a bulk correction.
// @Summary     Bulk category correction
// @Description Preview or apply a category to every transaction whose description contains the pattern. Executing also saves the pattern as a merchant rule.
// @Tags        corrections
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkCorrectionRequest true "Pattern, category and mode (preview or execute)"
// @Success     200 {object} services.CorrectionResult "Affected transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /corrections [post]
func (h *CorrectionHandler) ApplyBulkCorrection(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.correctionService.ApplyBulkCorrection(scope, req.Pattern, req.Category, services.CorrectionMode(req.Mode), c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
