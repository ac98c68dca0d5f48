// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendlens/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("direction", validateDirection)
		_ = v.RegisterValidation("correction_mode", validateCorrectionMode)
		_ = v.RegisterValidation("statement_format", validateStatementFormat)
		_ = v.RegisterValidation("not_blank", validateNotBlank)
	}
}

func validateDirection(fl validator.FieldLevel) bool {
	switch models.Direction(fl.Field().String()) {
	case models.DirectionIncome, models.DirectionExpense:
		return true
	}
	return false
}

func validateCorrectionMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "preview", "execute":
		return true
	}
	return false
}

func validateStatementFormat(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "csv", "xlsx":
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
