package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// UpdateCategoryRequest represents the request payload for recategorizing one transaction.
type UpdateCategoryRequest struct {
	Category string `json:"category" binding:"required,not_blank,max=100"`
}

// GetTransactions handles listing the user's transactions.
// @Summary     Get transactions
// @Description Get a paginated, filtered list of transactions, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from      query string false "Start date (YYYY-MM-DD)"
// @Param       to        query string false "End date (YYYY-MM-DD)"
// @Param       direction query string false "income or expense"
// @Param       category  query string false "Exact category"
// @Param       bank      query string false "Bank name"
// @Param       upload_id query string false "Upload ID"
// @Param       q         query string false "Description contains"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(scope, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return filter, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return filter, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}
	filter.FromDate, filter.ToDate = from, to

	if v := c.Query("direction"); v != "" {
		d := models.Direction(v)
		if d != models.DirectionIncome && d != models.DirectionExpense {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be 'income' or 'expense'")
		}
		filter.Direction = &d
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("bank"); v != "" {
		filter.BankName = &v
	}
	if v := c.Query("upload_id"); v != "" {
		filter.UploadID = &v
	}
	filter.Search = c.Query("q")
	return filter, nil
}

// GetTransaction handles fetching a single transaction.
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(scope, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateCategory handles setting a user-chosen category on one transaction.
// @Summary     Recategorize a transaction
// @Description Set the category of a single transaction; the change is kept on later recategorization
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Transaction ID"
// @Param       request body UpdateCategoryRequest true "New category"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/category [put]
func (h *TransactionHandler) UpdateCategory(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	transaction, err := h.transactionService.UpdateCategory(scope, c.Param("id"), req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
