package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// ListBudgets returns the user's budgets ordered by category.
func (s *budgetService) ListBudgets(userScope string) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_scope = ?", userScope).Order("category").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}
	return budgets, nil
}

// UpsertBudget sets the monthly budget for a category, replacing any
// existing amount.
func (s *budgetService) UpsertBudget(userScope, category string, amount decimal.Decimal) (*models.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}

	if err := upsertBudget(s.db, userScope, category, amount, true); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.Budget
	if err := s.db.Where("user_scope = ? AND category = ?", userScope, category).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// upsertBudget writes a budget row. With overwrite false an existing row is
// left untouched.
func upsertBudget(db *gorm.DB, userScope, category string, amount decimal.Decimal, overwrite bool) error {
	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_scope"}, {Name: "category"}},
	}
	if overwrite {
		conflict.DoUpdates = clause.AssignmentColumns([]string{"amount", "updated_at"})
	} else {
		conflict.DoNothing = true
	}

	budget := &models.Budget{UserScope: userScope, Category: category, Amount: amount.Round(2)}
	return db.Clauses(conflict).Create(budget).Error
}

// DeleteBudget removes the budget for a category.
func (s *budgetService) DeleteBudget(userScope, category string) error {
	result := s.db.Where("user_scope = ? AND category = ?", userScope, strings.TrimSpace(category)).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}
