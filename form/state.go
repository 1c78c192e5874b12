// Package form is the presentation layer over the overlay resolver: it keeps
// the per-field editing state machine, renders effective values with pending
// markers, and maps field-scoped validation errors back onto form inputs.
package form

import (
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

type Phase string

const (
	PhaseClean      Phase = "clean"
	PhasePending    Phase = "pending"
	PhaseSubmitting Phase = "submitting"
)

// FieldController drives one editable field (or collection entry) through
// clean -> pending -> clean, with the transient submitting phase while a
// request or cancel is in flight. There is no terminal phase; the field
// cycles for the lifetime of the resource.
type FieldController struct {
	field     resource.FieldName
	entryKey  string
	phase     Phase
	before    Phase
	pendingID string
}

// NewFieldController derives the initial phase from the resolver's view at
// mount time.
func NewFieldController(state overlay.FieldState) *FieldController {
	controller := &FieldController{
		field: state.Field,
		phase: PhaseClean,
	}
	if state.Pending != nil {
		controller.phase = PhasePending
		controller.pendingID = state.Pending.ID
	}
	return controller
}

// NewEntryController is the collection-entry variant.
func NewEntryController(field resource.FieldName, entry overlay.Entry) *FieldController {
	controller := &FieldController{
		field:    field,
		entryKey: entry.Key,
		phase:    PhaseClean,
	}
	if entry.Pending != nil {
		controller.phase = PhasePending
		controller.pendingID = entry.Pending.ID
	}
	return controller
}

func (c *FieldController) Phase() Phase {
	if c == nil {
		return PhaseClean
	}
	return c.phase
}

// PendingChangeID returns the change record backing the pending phase, for
// binding the revert control.
func (c *FieldController) PendingChangeID() string {
	if c == nil {
		return ""
	}
	return c.pendingID
}

// Editable reports whether the field accepts direct input right now.
func (c *FieldController) Editable() bool {
	return c.Phase() == PhaseClean
}

// Revertable reports whether a revert (cancel-change) control applies.
func (c *FieldController) Revertable() bool {
	return c.Phase() == PhasePending
}

// BeginSubmit moves the field into the submitting phase. It refuses when a
// submission is already in flight: controls stay disabled until the prior
// one settles, so a form cannot race itself.
func (c *FieldController) BeginSubmit() error {
	if c == nil {
		return faults.NewTypedError(faults.InternalError, "field controller is nil", nil)
	}
	if c.phase == PhaseSubmitting {
		return faults.NewTypedError(faults.ConflictError,
			"a submission is already in flight for this field", nil)
	}
	c.before = c.phase
	c.phase = PhaseSubmitting
	return nil
}

// SettleRequested completes a request-change submission.
func (c *FieldController) SettleRequested(created resource.ChangeRecord, err error) {
	if c == nil || c.phase != PhaseSubmitting {
		return
	}
	if err != nil {
		// Failed submissions keep the edited state and re-enable controls.
		c.phase = c.before
		return
	}
	c.phase = PhasePending
	c.pendingID = created.ID
}

// SettleCancelled completes a cancel-change submission. A successful cancel
// (including the already-applied race) returns the field to clean.
func (c *FieldController) SettleCancelled(err error) {
	if c == nil || c.phase != PhaseSubmitting {
		return
	}
	if err != nil {
		c.phase = c.before
		return
	}
	c.phase = PhaseClean
	c.pendingID = ""
}

// Refresh re-derives the phase from a fresh resolution, picking up backend
// applies that removed the pending record out from under the form.
func (c *FieldController) Refresh(state overlay.FieldState) {
	if c == nil || c.phase == PhaseSubmitting {
		return
	}
	if state.Pending != nil {
		c.phase = PhasePending
		c.pendingID = state.Pending.ID
		return
	}
	c.phase = PhaseClean
	c.pendingID = ""
}

// RefreshEntry is the collection-entry variant of Refresh.
func (c *FieldController) RefreshEntry(entry overlay.Entry) {
	if c == nil || c.phase == PhaseSubmitting {
		return
	}
	if entry.Pending != nil {
		c.phase = PhasePending
		c.pendingID = entry.Pending.ID
		return
	}
	c.phase = PhaseClean
	c.pendingID = ""
}
