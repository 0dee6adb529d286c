package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyWorkErrorPassesDomainErrors(t *testing.T) {
	domainErr := errors.New("insufficient stock")
	if got := classifyWorkError(domainErr); got != domainErr {
		t.Errorf("classifyWorkError(domain) = %v, want the error unchanged", got)
	}

	wrapped := fmt.Errorf("adjust: %w", domainErr)
	if got := classifyWorkError(wrapped); got != wrapped {
		t.Errorf("classifyWorkError(wrapped domain) = %v, want the error unchanged", got)
	}
}

func TestClassifyWorkErrorWrapsDatabaseFailures(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40001", Message: "serialization failure"}
	got := classifyWorkError(fmt.Errorf("query: %w", pgErr))
	if !errors.Is(got, ErrTxFailed) {
		t.Errorf("pg error should classify as ErrTxFailed, got %v", got)
	}
}

func TestClassifyWorkErrorKeepsInfrastructureErrors(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: acquire timed out", ErrPoolExhausted),
		fmt.Errorf("%w: begin", ErrTxFailed),
		fmt.Errorf("%w: dns", ErrConnectFailed),
	} {
		if got := classifyWorkError(err); got != err {
			t.Errorf("classifyWorkError(%v) = %v, want unchanged", err, got)
		}
	}
}

func TestClassifyAcquireError(t *testing.T) {
	if got := classifyAcquireError(context.DeadlineExceeded); !errors.Is(got, ErrPoolExhausted) {
		t.Errorf("deadline = %v, want ErrPoolExhausted", got)
	}
	if got := classifyAcquireError(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("canceled = %v, want context.Canceled passthrough", got)
	}
	if got := classifyAcquireError(errors.New("dial tcp: refused")); !errors.Is(got, ErrConnectFailed) {
		t.Errorf("dial failure = %v, want ErrConnectFailed", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Error("23505 should report as a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain errors are not unique violations")
	}
}
