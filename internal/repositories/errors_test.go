package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prayer-clock/backend/internal/apperr"
)

func TestStorageErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperr.ErrStorageTimeout},
		{"serialization", &pgconn.PgError{Code: pgSerializationFailure}, apperr.ErrStorageConflict},
		{"deadlock", &pgconn.PgError{Code: pgDeadlockDetected}, apperr.ErrStorageConflict},
		{"lock timeout", &pgconn.PgError{Code: pgLockNotAvailable}, apperr.ErrStorageConflict},
		{"statement timeout", &pgconn.PgError{Code: pgQueryCanceled}, apperr.ErrStorageTimeout},
		{"shutdown", &pgconn.PgError{Code: pgAdminShutdown}, apperr.ErrStorageUnavailable},
		{"too many connections", &pgconn.PgError{Code: pgTooManyConnections}, apperr.ErrStorageUnavailable},
		{"already typed", fmt.Errorf("x: %w", apperr.ErrSlotFull), apperr.ErrSlotFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storageErr(tt.err)
			if !errors.Is(got, tt.expected) {
				t.Errorf("storageErr(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStorageErrPassThrough(t *testing.T) {
	if storageErr(nil) != nil {
		t.Error("storageErr(nil) should be nil")
	}

	plain := errors.New("syntax error")
	if got := storageErr(plain); got != plain {
		t.Errorf("storageErr(plain) = %v, want unchanged", got)
	}

	check := &pgconn.PgError{Code: "23514"}
	if got := storageErr(check); apperr.IsRetryable(got) {
		t.Errorf("check violation should not be retryable: %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "campaigns_single_active"})

	if !isUniqueViolation(err, "campaigns_single_active") {
		t.Error("expected match on constraint name")
	}
	if !isUniqueViolation(err, "") {
		t.Error("expected match with empty constraint")
	}
	if isUniqueViolation(err, "signups_unique_member_slot") {
		t.Error("unexpected match on other constraint")
	}
	if isUniqueViolation(errors.New("x"), "") {
		t.Error("plain error is not a unique violation")
	}
}
