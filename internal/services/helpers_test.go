package services

import (
	"time"

	"cloud.google.com/go/civil"

	"spendlens/internal/categorize"
	"spendlens/internal/models"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// failingRules is a RuleServicer whose writes always fail.
type failingRules struct {
	RuleServicer
	err error
}

func (f failingRules) UpsertRule(string, string, string) (*models.MerchantRule, error) {
	return nil, f.err
}

func (f failingRules) RuleSet(string) (categorize.RuleSet, error) {
	return categorize.NewRuleSet(nil), nil
}

// recordingAudit collects audit events in memory.
type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) Log(_, action, _, _, _ string, _ map[string]any) {
	r.actions = append(r.actions, action)
}
