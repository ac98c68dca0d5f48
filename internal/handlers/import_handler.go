package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/ingest"
	"spendlens/internal/pagination"
	"spendlens/internal/services"
	"spendlens/internal/statement"
)

// ImportHandler handles statement ingestion and upload management.
type ImportHandler struct {
	importService  services.ImportServicer
	maxUploadBytes int64
}

// NewImportHandler creates a new ImportHandler. Statement uploads larger
// than maxUploadBytes are rejected.
func NewImportHandler(importService services.ImportServicer, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{importService: importService, maxUploadBytes: maxUploadBytes}
}

// IngestRowsRequest represents a batch of already-parsed statement rows.
type IngestRowsRequest struct {
	BankName       string          `json:"bank_name" binding:"required,not_blank,max=100"`
	FileName       string          `json:"file_name" binding:"max=255"`
	SkipDuplicates bool            `json:"skip_duplicates"`
	Rows           []ingest.RawRow `json:"rows" binding:"required,min=1"`
}

// IngestRows handles a JSON batch of raw rows from the upstream upload service.
// @Summary     Ingest raw statement rows
// @Description Build, categorize and store one batch of parsed statement rows for the user named in X-User-Scope
// @Tags        ingest
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body IngestRowsRequest true "Rows in file order"
// @Success     201 {object} services.ImportResult "Batch imported"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "No usable rows"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ingest/rows [post]
func (h *ImportHandler) IngestRows(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IngestRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.importService.ImportRows(scope, req.BankName, req.Rows, services.ImportOptions{
		FileName:       req.FileName,
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// UploadStatementRequest represents the form fields of a statement upload.
type UploadStatementRequest struct {
	BankName       string `form:"bank_name" binding:"required,not_blank,max=100"`
	Format         string `form:"format" binding:"omitempty,statement_format"`
	SkipDuplicates bool   `form:"skip_duplicates"`
}

// UploadStatement handles a CSV or XLSX statement file upload.
// @Summary     Upload a statement
// @Description Import a CSV or XLSX bank statement. The format is taken from the form or the file extension.
// @Tags        uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file            formData file   true  "Statement file"
// @Param       bank_name       formData string true  "Bank or account the statement belongs to"
// @Param       format          formData string false "csv or xlsx"
// @Param       skip_duplicates formData bool   false "Skip rows already imported"
// @Success     201 {object} services.ImportResult "Statement imported"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     422 {object} ErrorResponse "Unreadable statement"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads [post]
func (h *ImportHandler) UploadStatement(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req UploadStatementRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, uploadError(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, uploadError(err))
		return
	}

	var format statement.Format
	if req.Format != "" {
		format, err = statement.ParseFormat(req.Format)
	} else {
		format, err = statement.DetectFormat(fileHeader.Filename)
	}
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnsupportedFormat, err.Error()))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUnreadableStatement, err))
		return
	}
	defer file.Close()

	result, err := h.importService.ImportStatement(scope, req.BankName, format, file, services.ImportOptions{
		FileName:       fileHeader.Filename,
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// uploadError maps multipart parsing failures, including an exceeded size
// limit, to AppErrors.
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.ErrPayloadTooLarge
	}
	return invalidInput(err)
}

// ListUploads handles listing the user's import batches.
// @Summary     List uploads
// @Description Get a paginated list of statement uploads, newest first
// @Tags        uploads
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Upload] "Paginated uploads"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads [get]
func (h *ImportHandler) ListUploads(c *gin.Context) {
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

	result, err := h.importService.ListUploads(scope, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteUpload handles deleting an upload and its transactions.
// @Summary     Delete an upload
// @Description Delete an import batch together with every transaction it created
// @Tags        uploads
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Upload ID"
// @Success     200 {object} map[string]string "Upload deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Upload not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /uploads/{id} [delete]
func (h *ImportHandler) DeleteUpload(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.importService.DeleteUpload(scope, c.Param("id"), c.ClientIP()); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Upload deleted successfully"})
}

// DeleteBankTransactions handles deleting everything imported for one bank.
// @Summary     Delete a bank's transactions
// @Description Delete every transaction and upload stored under a bank name
// @Tags        uploads
// @Produce     json
// @Security    BearerAuth
// @Param       name path string true "Bank name"
// @Success     200 {object} map[string]int64 "Number of transactions deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /banks/{name}/transactions [delete]
func (h *ImportHandler) DeleteBankTransactions(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.importService.DeleteBankTransactions(scope, c.Param("name"), c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
