package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"gestcom/internal/core/apperror"
)

// SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsRetryable reports whether err aborted a transaction that may succeed when re-run.
func IsRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// MapError wraps a driver error with op and classifies the ones callers act on.
// Application errors pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	switch pgCode(err) {
	case codeUniqueViolation:
		return apperror.NewConflict("record already exists").WithDetail("operation", op).WithCause(err)
	case codeSerializationFailure, codeDeadlockDetected:
		return apperror.NewConflict("concurrent update, please retry").WithDetail("operation", op).WithCause(err)
	case codeQueryCanceled:
		return apperror.NewDatabase(fmt.Errorf("%s: statement timeout: %w", op, err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewDatabase(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
