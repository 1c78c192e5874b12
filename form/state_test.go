package form

import (
	"errors"
	"testing"

	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

func TestControllerInitialPhase(t *testing.T) {
	t.Parallel()

	clean := NewFieldController(overlay.FieldState{
		Field:  resource.FieldCommand,
		Status: overlay.StatusClean,
	})
	if clean.Phase() != PhaseClean || !clean.Editable() {
		t.Fatalf("field without pending change must mount clean and editable")
	}

	pending := NewFieldController(overlay.FieldState{
		Field:   resource.FieldSource,
		Status:  overlay.StatusPendingUpdate,
		Pending: &resource.ChangeRecord{ID: "chg-1"},
	})
	if pending.Phase() != PhasePending {
		t.Fatalf("field with pending change must mount pending")
	}
	if pending.Editable() {
		t.Fatalf("pending field must not be editable")
	}
	if !pending.Revertable() || pending.PendingChangeID() != "chg-1" {
		t.Fatalf("pending field must expose its change id for the revert control")
	}
}

func TestControllerRequestCycle(t *testing.T) {
	t.Parallel()

	controller := NewFieldController(overlay.FieldState{Field: resource.FieldCommand})

	if err := controller.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if controller.Phase() != PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", controller.Phase())
	}
	if controller.Editable() {
		t.Fatalf("controls must be disabled while a submission is in flight")
	}

	if err := controller.BeginSubmit(); !faults.IsCategory(err, faults.ConflictError) {
		t.Fatalf("duplicate submission must be refused, got %v", err)
	}

	controller.SettleRequested(resource.ChangeRecord{ID: "chg-1"}, nil)
	if controller.Phase() != PhasePending || controller.PendingChangeID() != "chg-1" {
		t.Fatalf("successful request must land in pending with the new change id")
	}
}

func TestControllerFailedRequestKeepsEditedState(t *testing.T) {
	t.Parallel()

	controller := NewFieldController(overlay.FieldState{Field: resource.FieldCommand})
	if err := controller.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	controller.SettleRequested(resource.ChangeRecord{}, errors.New("rejected"))
	if controller.Phase() != PhaseClean {
		t.Fatalf("failed submission must re-enable the editable field, got %s", controller.Phase())
	}
}

func TestControllerCancelCycle(t *testing.T) {
	t.Parallel()

	controller := NewFieldController(overlay.FieldState{
		Field:   resource.FieldSource,
		Pending: &resource.ChangeRecord{ID: "chg-1"},
	})

	if err := controller.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	controller.SettleCancelled(nil)
	if controller.Phase() != PhaseClean || controller.PendingChangeID() != "" {
		t.Fatalf("successful cancel must return the field to clean")
	}
}

func TestControllerFailedCancelStaysPending(t *testing.T) {
	t.Parallel()

	controller := NewFieldController(overlay.FieldState{
		Field:   resource.FieldSource,
		Pending: &resource.ChangeRecord{ID: "chg-1"},
	})

	if err := controller.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	controller.SettleCancelled(errors.New("network down"))
	if controller.Phase() != PhasePending {
		t.Fatalf("failed cancel must keep the revertable pending state, got %s", controller.Phase())
	}
	if controller.PendingChangeID() != "chg-1" {
		t.Fatalf("change id must survive a failed cancel")
	}
}

func TestControllerRefreshPicksUpBackendApply(t *testing.T) {
	t.Parallel()

	controller := NewFieldController(overlay.FieldState{
		Field:   resource.FieldSource,
		Pending: &resource.ChangeRecord{ID: "chg-1"},
	})

	// The backend applied the change; the refetched resolution is clean.
	controller.Refresh(overlay.FieldState{Field: resource.FieldSource, Status: overlay.StatusClean})
	if controller.Phase() != PhaseClean {
		t.Fatalf("refresh after backend apply must find the field clean, got %s", controller.Phase())
	}

	// While submitting, refresh must not clobber the transient phase.
	if err := controller.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	controller.Refresh(overlay.FieldState{
		Field:   resource.FieldSource,
		Pending: &resource.ChangeRecord{ID: "chg-2"},
	})
	if controller.Phase() != PhaseSubmitting {
		t.Fatalf("refresh must not interrupt an in-flight submission")
	}
}

func TestMapSubmissionError(t *testing.T) {
	t.Parallel()

	t.Run("field_errors_map_by_path", func(t *testing.T) {
		t.Parallel()

		err := faults.NewFieldValidationError("change rejected", []faults.FieldError{
			{Attribute: "credentials.username", Detail: "must not be empty"},
			{Attribute: "credentials.password", Detail: "too short"},
			{Attribute: "source", Detail: "unknown registry"},
		})

		mapped, banner := MapSubmissionError(err)
		if banner != "" {
			t.Fatalf("field-scoped errors must not produce a banner, got %q", banner)
		}
		if mapped.First() != "credentials.username" {
			t.Fatalf("first erroring field must be the focus target, got %q", mapped.First())
		}
		if detail, ok := mapped.For("source"); !ok || detail != "unknown registry" {
			t.Fatalf("exact path lookup failed: %q %v", detail, ok)
		}
		nested := mapped.ForField("credentials")
		if len(nested) != 2 {
			t.Fatalf("one level of nesting must be supported, got %d details", len(nested))
		}
	})

	t.Run("banner_for_non_field_errors", func(t *testing.T) {
		t.Parallel()

		mapped, banner := MapSubmissionError(
			faults.NewTypedError(faults.ServerError, "deploy worker unavailable", nil))
		if !mapped.Empty() {
			t.Fatalf("non-field errors must not map onto inputs")
		}
		if banner != "deploy worker unavailable" {
			t.Fatalf("unexpected banner: %q", banner)
		}
	})

	t.Run("nil_error", func(t *testing.T) {
		t.Parallel()

		mapped, banner := MapSubmissionError(nil)
		if !mapped.Empty() || banner != "" {
			t.Fatalf("nil error must map to nothing")
		}
	})
}
