package services

import (
	"errors"
	"io"
	"strings"

	"gorm.io/gorm"

	"spendlens/internal/categorize"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/ingest"
	"spendlens/internal/logger"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
	"spendlens/internal/statement"
)

// insertBatchSize is the number of transactions per INSERT statement.
const insertBatchSize = 200

// importService handles statement ingestion and upload management.
type importService struct {
	db      *gorm.DB
	builder *ingest.Builder
	rules   RuleServicer
	dict    *categorize.Dictionary
	audit   AuditServicer
}

// NewImportService creates a new ImportServicer. A nil dictionary disables
// the dictionary step of categorization.
func NewImportService(db *gorm.DB, rules RuleServicer, dict *categorize.Dictionary, audit AuditServicer) ImportServicer {
	return &importService{
		db:      db,
		builder: ingest.NewBuilder(),
		rules:   rules,
		dict:    dict,
		audit:   audit,
	}
}

// ImportRows builds, categorizes and stores one batch of raw rows as a new upload.
func (s *importService) ImportRows(userScope, bankName string, rows []ingest.RawRow, opts ImportOptions) (*ImportResult, error) {
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "bank name is required")
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	built := s.builder.Build(ingest.Batch{UserScope: userScope, BankName: bankName, Rows: rows})
	if len(built.Transactions) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrEmptyBatch, "no row has a usable date or amount")
	}

	rules, err := s.rules.RuleSet(userScope)
	if err != nil {
		return nil, err
	}
	categorize.ApplyAll(built.Transactions, rules, s.dict)

	txs := built.Transactions
	duplicates := 0
	if opts.SkipDuplicates {
		txs, duplicates, err = s.dropExisting(userScope, txs)
		if err != nil {
			return nil, err
		}
	}

	result := &ImportResult{
		Fields:     built.Fields,
		Imported:   len(txs),
		Skipped:    len(built.Skipped),
		Duplicates: duplicates,
		Categories: make(map[string]int),
	}
	for _, tx := range txs {
		result.Categories[tx.Category]++
	}

	if len(txs) > 0 {
		upload := &models.Upload{
			UserScope:     userScope,
			BankName:      bankName,
			FileName:      opts.FileName,
			SkippedRows:   len(built.Skipped),
			DuplicateRows: duplicates,
		}
		if err := s.save(upload, txs); err != nil {
			return nil, err
		}
		result.Upload = upload
	}

	logger.Get().Infow("statement imported",
		"user_scope", userScope,
		"bank_name", bankName,
		"rows", len(rows),
		"imported", result.Imported,
		"skipped", result.Skipped,
		"duplicates", duplicates,
	)
	return result, nil
}

// dropExisting removes transactions whose signature the user already has.
func (s *importService) dropExisting(userScope string, txs []models.Transaction) ([]models.Transaction, int, error) {
	signatures := make([]string, len(txs))
	for i := range txs {
		signatures[i] = txs[i].Signature
	}
	existing, err := existingSignatures(s.db, userScope, signatures)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	kept := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !existing[tx.Signature] {
			kept = append(kept, tx)
		}
	}
	return kept, len(txs) - len(kept), nil
}

// ImportStatement decodes a CSV or XLSX statement and imports its rows.
func (s *importService) ImportStatement(userScope, bankName string, format statement.Format, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	rows, err := statement.Read(r, format)
	if err != nil {
		switch {
		case errors.Is(err, statement.ErrUnsupportedFormat):
			return nil, apperrors.ErrUnsupportedFormat
		case errors.Is(err, statement.ErrEmptyStatement):
			return nil, apperrors.Wrap(apperrors.ErrEmptyBatch, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrUnreadableStatement, err)
	}
	return s.ImportRows(userScope, bankName, rows, opts)
}

// SaveTransactions stores already-built transactions as a new upload. Scope,
// bank and missing signatures are filled in; the caller's slice is not modified.
func (s *importService) SaveTransactions(userScope, bankName, fileName string, txs []models.Transaction) (*models.Upload, error) {
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "bank name is required")
	}
	if len(txs) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	batch := make([]models.Transaction, len(txs))
	copy(batch, txs)
	for i := range batch {
		batch[i].ID = ""
		batch[i].UserScope = userScope
		batch[i].BankName = bankName
		if batch[i].Signature == "" {
			batch[i].Signature = ingest.TransactionSignature(&batch[i])
		}
	}

	upload := &models.Upload{UserScope: userScope, BankName: bankName, FileName: fileName}
	if err := s.save(upload, batch); err != nil {
		return nil, err
	}
	return upload, nil
}

// save writes the upload row and its transactions in one database transaction.
func (s *importService) save(upload *models.Upload, txs []models.Transaction) error {
	upload.RowCount = len(txs)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(upload).Error; err != nil {
			return err
		}
		for i := range txs {
			txs[i].UploadID = upload.ID
		}
		return tx.CreateInBatches(&txs, insertBatchSize).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListUploads returns the user's uploads, newest first.
func (s *importService) ListUploads(userScope string, page pagination.PageRequest) (*pagination.PageResponse[models.Upload], error) {
	page.Defaults()

	base := s.db.Model(&models.Upload{}).Where("user_scope = ?", userScope)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var uploads []models.Upload
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&uploads).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(uploads, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteUpload deletes an upload and all of its transactions.
func (s *importService) DeleteUpload(userScope, uploadID, ipAddress string) error {
	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var upload models.Upload
		if err := tx.Where("id = ? AND user_scope = ?", uploadID, userScope).First(&upload).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUploadNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result := tx.Where("upload_id = ? AND user_scope = ?", upload.ID, userScope).Delete(&models.Transaction{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		deleted = result.RowsAffected

		if err := tx.Delete(&upload).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(userScope, AuditActionDeleteUpload, AuditResourceUpload, uploadID, ipAddress, map[string]any{
		"transactions_deleted": deleted,
	})
	return nil
}

// DeleteBankTransactions deletes every transaction and upload the user
// imported under bankName. It returns the number of transactions removed.
func (s *importService) DeleteBankTransactions(userScope, bankName, ipAddress string) (int64, error) {
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "bank name is required")
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_scope = ? AND bank_name = ?", userScope, bankName).Delete(&models.Transaction{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return tx.Where("user_scope = ? AND bank_name = ?", userScope, bankName).Delete(&models.Upload{}).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if deleted > 0 {
		s.audit.Log(userScope, AuditActionDeleteBank, AuditResourceTransaction, bankName, ipAddress, map[string]any{
			"bank_name":            bankName,
			"transactions_deleted": deleted,
		})
	}
	return deleted, nil
}
