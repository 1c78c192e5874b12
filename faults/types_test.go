package faults

import (
	"errors"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ValidationError, "invalid input", nil)
	if !IsCategory(err, ValidationError) {
		t.Fatalf("expected validation category match")
	}
	if IsCategory(err, NotFoundError) {
		t.Fatalf("expected not-found category mismatch")
	}

	wrapped := errors.New("wrap: " + err.Error())
	if IsCategory(wrapped, ValidationError) {
		t.Fatalf("plain wrapped string error must not match typed category")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ValidationError) {
		t.Fatalf("expected category match through errors.Join")
	}
}

func TestFieldErrorsOf(t *testing.T) {
	t.Parallel()

	fields := []FieldError{
		{Attribute: "credentials.username", Detail: "must not be empty"},
		{Attribute: "source", Detail: "unknown image"},
	}
	err := NewFieldValidationError("change rejected", fields)

	got := FieldErrorsOf(err)
	if len(got) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(got))
	}
	if got[0].Attribute != "credentials.username" {
		t.Fatalf("field order must be preserved, got %q first", got[0].Attribute)
	}

	if FieldErrorsOf(errors.New("plain")) != nil {
		t.Fatalf("plain errors must not carry field details")
	}
	if FieldErrorsOf(nil) != nil {
		t.Fatalf("nil error must not carry field details")
	}
}

func TestTypedErrorMessageComposition(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewTypedError(TransportError, "remote request failed", cause)
	if err.Error() != "remote request failed: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}

	bare := NewTypedError(ServerError, "", nil)
	if bare.Error() != string(ServerError) {
		t.Fatalf("category must be the fallback message, got %q", bare.Error())
	}
}
