package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
	"spendlens/internal/pagination"
)

// DefaultFetchPageSize is used when no page size is configured.
const DefaultFetchPageSize = 500

// signatureChunk bounds the number of bind parameters in IN queries.
const signatureChunk = 500

// transactionService handles reading and recategorizing stored transactions.
type transactionService struct {
	db       *gorm.DB
	pageSize int
}

// NewTransactionService creates a new TransactionServicer. FetchTransactions
// reads pageSize rows per query.
func NewTransactionService(db *gorm.DB, pageSize int) TransactionServicer {
	if pageSize <= 0 {
		pageSize = DefaultFetchPageSize
	}
	return &transactionService{db: db, pageSize: pageSize}
}

// FetchTransactions loads every transaction of the user matching filter,
// one page at a time until a short page is returned.
func (s *transactionService) FetchTransactions(userScope string, filter TransactionFilter) ([]models.Transaction, error) {
	txs, err := fetchAll(s.db, userScope, filter, s.pageSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

func fetchAll(db *gorm.DB, userScope string, filter TransactionFilter, pageSize int) ([]models.Transaction, error) {
	q := applyTransactionFilters(db.Model(&models.Transaction{}).Where("user_scope = ?", userScope), filter)
	return pagination.FetchAll[models.Transaction](q.Order("id"), pageSize)
}

// ListTransactions returns a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) ListTransactions(userScope string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_scope = ?", userScope), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := base.Order("date DESC").Order("upload_id").Order("position").
		Scopes(pagination.Paginate(page)).Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// applyTransactionFilters applies optional filter conditions to a transaction query.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.String())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.String())
	}
	if f.Direction != nil {
		q = q.Where("direction = ?", *f.Direction)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.BankName != nil {
		q = q.Where("bank_name = ?", *f.BankName)
	}
	if f.UploadID != nil {
		q = q.Where("upload_id = ?", *f.UploadID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userScope, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_scope = ?", transactionID, userScope).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateCategory sets a user-chosen category on a single transaction.
func (s *transactionService) UpdateCategory(userScope, transactionID, category string) (*models.Transaction, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	transaction, err := s.GetTransactionByID(userScope, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"category":        category,
		"category_source": models.CategorySourceUser,
	}
	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.Category = category
	transaction.CategorySource = models.CategorySourceUser
	return transaction, nil
}

// ExistingSignatures reports which of signatures the user already has stored.
func (s *transactionService) ExistingSignatures(userScope string, signatures []string) (map[string]bool, error) {
	found, err := existingSignatures(s.db, userScope, signatures)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return found, nil
}

func existingSignatures(db *gorm.DB, userScope string, signatures []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(signatures); start += signatureChunk {
		end := min(start+signatureChunk, len(signatures))

		var chunk []string
		err := db.Model(&models.Transaction{}).
			Where("user_scope = ? AND signature IN ?", userScope, signatures[start:end]).
			Pluck("signature", &chunk).Error
		if err != nil {
			return nil, err
		}
		for _, sig := range chunk {
			found[sig] = true
		}
	}
	return found, nil
}
