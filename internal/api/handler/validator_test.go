package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/securedoc/account-service/internal/core/domain"
)

func TestValidator_UsesWireNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{FirstName: strings.Repeat("a", 101), Email: "nope"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{
		"firstName must be at most 100 characters",
		"lastName is required",
		"email must be a valid email",
		"password is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %q", want, err.Error())
		}
	}

	if err := v.Validate(&verifyRequest{}); err == nil || !strings.Contains(err.Error(), "key is required") {
		t.Fatalf("expected query tag name in message, got %v", err)
	}
}

func TestValidator_Valid(t *testing.T) {
	req := &registerRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "s3cret"}
	if err := NewValidator().Validate(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
