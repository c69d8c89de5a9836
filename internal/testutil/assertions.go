package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "famledger/internal/errors"
)

// AssertAppError checks that err carries the expected AppError code. The
// wrapped cause, if any, is included in the failure message.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s, internal: %v)",
			expectedCode, appErr.Code, appErr.Message, appErr.Internal)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAmount compares a money value against want at two decimal places,
// the precision amounts are stored and shown with.
func AssertAmount(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	if got.StringFixed(2) != want {
		t.Errorf("expected amount %s, got %s", want, got.StringFixed(2))
	}
}
