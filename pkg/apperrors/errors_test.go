package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestValidationCarriesAllViolations(t *testing.T) {
	err := NewValidation("title too short", "description too short", "priority missing")

	if CodeOf(err) != CodeValidation {
		t.Fatalf("code = %s", CodeOf(err))
	}
	violations := Violations(err)
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %v", violations)
	}
	if ToDomainError(err).HTTPStatus != http.StatusBadRequest {
		t.Fatal("validation must map to 400")
	}
}

func TestErrorCodesAndStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("ticket"), CodeNotFound, http.StatusNotFound},
		{NewConflict("self"), CodeConflict, http.StatusConflict},
		{NewUnauthorized("token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewInternal(errors.New("db")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		if de.Code != tc.code || de.HTTPStatus != tc.status {
			t.Fatalf("%v: code=%s status=%d, want %s/%d", tc.err, de.Code, de.HTTPStatus, tc.code, tc.status)
		}
	}
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	de := ToDomainError(NewNotFound("assignee"))
	if de.Message != "assignee not found" {
		t.Fatalf("message = %q", de.Message)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if de.Code != CodeNotFound {
		t.Fatalf("pgx.ErrNoRows must map to NOT_FOUND, got %s", de.Code)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection refused")
	de := ToDomainError(cause)
	if de.Code != CodeInternal {
		t.Fatalf("code = %s", de.Code)
	}
	if !errors.Is(de, cause) {
		t.Fatal("cause must stay reachable via Unwrap")
	}
}

func TestDomainErrorPassesThrough(t *testing.T) {
	original := NewConflict("email already registered")
	wrapped := fmt.Errorf("register: %w", original)
	if CodeOf(wrapped) != CodeConflict {
		t.Fatal("wrapped domain errors must keep their code")
	}
}
