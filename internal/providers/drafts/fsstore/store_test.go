package fsstore

import (
	"testing"

	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/resource"
)

var composeRef = resource.Ref{Type: resource.TypeService, Project: "acme", Name: "web"}

func TestDraftRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, found, err := store.Load(composeRef); err != nil || found {
		t.Fatalf("fresh store must have no draft: found=%v err=%v", found, err)
	}

	if err := store.Save(composeRef, "services:\n  web:\n    image: nginx\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Last write wins.
	if err := store.Save(composeRef, "services: {}\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, found, err := store.Load(composeRef)
	if err != nil || !found {
		t.Fatalf("expected draft: found=%v err=%v", found, err)
	}
	if text != "services: {}\n" {
		t.Fatalf("unexpected draft text: %q", text)
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Discard(composeRef); err != nil {
		t.Fatalf("discarding an absent draft must not fail: %v", err)
	}

	if err := store.Save(composeRef, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Discard(composeRef); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found, _ := store.Load(composeRef); found {
		t.Fatalf("draft must be gone after discard")
	}
}

func TestDraftPathValidation(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := store.Load(resource.Ref{}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("zero ref must fail validation, got %v", err)
	}
	if _, err := NewStore("  "); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("empty base dir must fail validation, got %v", err)
	}
}
