package services

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spendlens/internal/categorize"
	apperrors "spendlens/internal/errors"
	"spendlens/internal/models"
)

// ruleService handles user merchant rules.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// ListRules returns the user's rules ordered by keyword.
func (s *ruleService) ListRules(userScope string) ([]models.MerchantRule, error) {
	var rules []models.MerchantRule
	if err := s.db.Where("user_scope = ?", userScope).Order("keyword").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rules == nil {
		rules = []models.MerchantRule{}
	}
	return rules, nil
}

// UpsertRule stores keyword -> category for the user. An existing rule for
// the same keyword is overwritten.
func (s *ruleService) UpsertRule(userScope, keyword, category string) (*models.MerchantRule, error) {
	keyword = categorize.NormalizePattern(keyword)
	category = strings.TrimSpace(category)
	if keyword == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "keyword is required")
	}
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	rule := &models.MerchantRule{UserScope: userScope, Keyword: keyword, Category: category}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_scope"}, {Name: "keyword"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "updated_at"}),
	}).Create(rule).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.MerchantRule
	if err := s.db.Where("user_scope = ? AND keyword = ?", userScope, keyword).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// DeleteRule removes one of the user's rules.
func (s *ruleService) DeleteRule(userScope, ruleID string) error {
	result := s.db.Where("id = ? AND user_scope = ?", ruleID, userScope).Delete(&models.MerchantRule{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// RuleSet loads the user's rules ready for matching.
func (s *ruleService) RuleSet(userScope string) (categorize.RuleSet, error) {
	rules, err := s.ListRules(userScope)
	if err != nil {
		return categorize.RuleSet{}, err
	}
	return categorize.NewRuleSet(rules), nil
}
