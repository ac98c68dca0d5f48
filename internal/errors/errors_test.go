package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != "INTERNAL_ERROR" || err.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected wrapped error %+v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	if ErrInternalServer.Internal != nil {
		t.Error("sentinel must not be mutated")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "pattern is required")
	if err.Error() != "pattern is required" || err.Code != ErrInvalidInput.Code {
		t.Errorf("unexpected error %+v", err)
	}
	var appErr *AppError
	if !stderrors.As(fmt.Errorf("ctx: %w", err), &appErr) || appErr.Code != "INVALID_INPUT" {
		t.Error("expected errors.As to find the AppError")
	}
}
