// Package handlers adapts the services to HTTP with Gin.
package handlers

import (
	"errors"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/logger"
	"spendlens/internal/middleware"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getUserScope extracts the caller's user scope from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserScope(c *gin.Context) (string, error) {
	scope := c.GetString(middleware.ScopeKey)
	if scope == "" {
		return "", apperrors.ErrUnauthorized
	}
	return scope, nil
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, param string) (*civil.Date, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, param+" must be a YYYY-MM-DD date")
	}
	return &d, nil
}

// parseIntQuery parses an optional positive integer query parameter.
func parseIntQuery(c *gin.Context, param string, defaultValue int) (int, error) {
	raw := c.Query(param)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, param+" must be a positive integer")
	}
	return n, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}

// invalidInput wraps a binding error as ErrInvalidInput.
func invalidInput(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
