package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorChaining(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailable(cause)

	if !errors.Is(err, cause) {
		t.Error("expected the cause to survive wrapping")
	}
	wrapped := fmt.Errorf("saving record: %w", err)
	if !HasCode(wrapped, CodeStoreUnavailable) {
		t.Error("expected the code to be visible through fmt.Errorf wrapping")
	}
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("bad input").WithDetail("field", "name")
	if err.Details["field"] != "name" {
		t.Errorf("expected detail to be stored, got %v", err.Details)
	}
}

func TestCodeHelpers(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{NewNotFound("record", "x"), IsNotFound},
		{NewNotActive("member", "x", "deleted"), IsNotActive},
		{NewNotDeleted("member", "x", "active"), IsNotDeleted},
		{NewProtectedEntity("role", "x"), IsProtectedEntity},
		{NewDependencyConflict("household", "x", 2), IsDependencyConflict},
		{NewReassignmentRequired("role", "x", nil), IsReassignmentRequired},
		{NewConcurrentModification("member", "x"), IsConcurrentModification},
	}
	for _, tc := range cases {
		if !tc.pred(tc.err) {
			t.Errorf("predicate rejected its own error: %v", tc.err)
		}
		if tc.pred(errors.New("plain")) {
			t.Errorf("predicate accepted a plain error")
		}
	}
}

func TestGetHTTPStatus(t *testing.T) {
	if got := GetHTTPStatus(NewNotFound("record", "x")); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
	if got := GetHTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown errors, got %d", got)
	}
}

func TestRender(t *testing.T) {
	if got := Render(NewNotActive("member", "x", "deleted")); got != "not active" {
		t.Errorf("expected bare message, got %q", got)
	}
	if got := Render(errors.New("plain failure")); got != "plain failure" {
		t.Errorf("expected passthrough for plain errors, got %q", got)
	}
}
