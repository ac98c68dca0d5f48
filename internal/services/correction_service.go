package services

import (
	"strings"

	"gorm.io/gorm"

	"spendlens/internal/categorize"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/logger"
	"spendlens/internal/models"
)

// updateChunk bounds the number of IDs per UPDATE statement.
const updateChunk = 500

// correctionService handles bulk category corrections.
type correctionService struct {
	db       *gorm.DB
	rules    RuleServicer
	audit    AuditServicer
	pageSize int
	locks    *scopeLocks
}

// NewCorrectionService creates a new CorrectionServicer.
func NewCorrectionService(db *gorm.DB, rules RuleServicer, audit AuditServicer, pageSize int) CorrectionServicer {
	if pageSize <= 0 {
		pageSize = DefaultFetchPageSize
	}
	return &correctionService{
		db:       db,
		rules:    rules,
		audit:    audit,
		pageSize: pageSize,
		locks:    newScopeLocks(),
	}
}

// ApplyBulkCorrection recategorizes every transaction whose description
// contains pattern and whose category differs from category.
//
// In preview mode nothing is written. In execute mode the matching set is
// updated in one database transaction; afterwards the pattern is saved as a
// merchant rule. A failure to save the rule is logged and reported through
// RuleSaved but does not undo the update. Executions for one user run one at
// a time.
func (s *correctionService) ApplyBulkCorrection(userScope, pattern, category string, mode CorrectionMode, ipAddress string) (*CorrectionResult, error) {
	keyword := categorize.NormalizePattern(pattern)
	category = strings.TrimSpace(category)
	if keyword == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required")
	}
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	switch mode {
	case CorrectionPreview:
		candidates, err := s.candidates(s.db, userScope, keyword, category)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &CorrectionResult{
			Mode:         mode,
			Pattern:      keyword,
			Category:     category,
			Matched:      len(candidates),
			Transactions: candidates,
		}, nil
	case CorrectionExecute:
		return s.execute(userScope, keyword, category, ipAddress)
	}
	return nil, apperrors.ErrInvalidCorrectionMode
}

func (s *correctionService) execute(userScope, keyword, category, ipAddress string) (*CorrectionResult, error) {
	unlock := s.locks.Lock(userScope)
	defer unlock()

	result := &CorrectionResult{Mode: CorrectionExecute, Pattern: keyword, Category: category}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		candidates, err := s.candidates(tx, userScope, keyword, category)
		if err != nil {
			return err
		}
		ids := make([]string, len(candidates))
		for i := range candidates {
			ids[i] = candidates[i].ID
			candidates[i].Category = category
			candidates[i].CategorySource = models.CategorySourceUser
		}

		for start := 0; start < len(ids); start += updateChunk {
			end := min(start+updateChunk, len(ids))
			res := tx.Model(&models.Transaction{}).
				Where("user_scope = ? AND id IN ?", userScope, ids[start:end]).
				Updates(map[string]interface{}{
					"category":        category,
					"category_source": models.CategorySourceUser,
				})
			if res.Error != nil {
				return res.Error
			}
			result.Updated += int(res.RowsAffected)
		}

		result.Matched = len(candidates)
		result.Transactions = candidates
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := s.rules.UpsertRule(userScope, keyword, category); err != nil {
		logger.Get().Errorw("failed to save merchant rule after bulk correction",
			"error", err,
			"user_scope", userScope,
			"keyword", keyword,
			"category", category,
		)
	} else {
		result.RuleSaved = true
	}

	s.audit.Log(userScope, AuditActionBulkCorrection, AuditResourceTransaction, "", ipAddress, map[string]any{
		"pattern":    keyword,
		"category":   category,
		"updated":    result.Updated,
		"rule_saved": result.RuleSaved,
	})
	return result, nil
}

// candidates returns the transactions a correction would change, using db
// so execution can read inside its own transaction. Matching happens in Go
// rather than with LIKE so that case folding agrees with the categorizer on
// every database.
func (s *correctionService) candidates(db *gorm.DB, userScope, keyword, category string) ([]models.Transaction, error) {
	txs, err := fetchAll(db, userScope, TransactionFilter{}, s.pageSize)
	if err != nil {
		return nil, err
	}
	return categorize.CorrectionCandidates(txs, keyword, category), nil
}
