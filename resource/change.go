package resource

import (
	"fmt"

	"github.com/reefcloud/reefctl/faults"
)

type ChangeKind string

const (
	ChangeAdd    ChangeKind = "ADD"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeAdd, ChangeUpdate, ChangeDelete:
		return true
	default:
		return false
	}
}

// ChangeRecord is one pending, uncommitted edit to a single field of a
// resource. The backend assigns ID on creation and is the sole writer of the
// pending-change list; the client only creates and cancels records.
//
// NewValue semantics for UPDATE follow the three-state rule: no record means
// no pending change, a record with a nil NewValue means "explicitly cleared",
// and a record with a concrete NewValue means "replace with this value".
type ChangeRecord struct {
	ID       string     `json:"id"`
	Field    FieldName  `json:"field"`
	Kind     ChangeKind `json:"type"`
	ItemID   string     `json:"item_id,omitempty"`
	NewValue Value      `json:"new_value,omitempty"`
}

func (c ChangeRecord) Validate() error {
	if !c.Kind.Valid() {
		return faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("unknown change kind %q", string(c.Kind)), nil)
	}

	spec, ok := SpecOf(c.Field)
	if !ok {
		return faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("unknown field %q", string(c.Field)), nil)
	}

	switch spec.Kind {
	case FieldScalar:
		if c.Kind == ChangeAdd {
			return faults.NewTypedError(faults.ValidationError,
				fmt.Sprintf("field %q is scalar; ADD applies only to collections", string(c.Field)), nil)
		}
		if c.ItemID != "" {
			return faults.NewTypedError(faults.ValidationError,
				fmt.Sprintf("field %q is scalar; item id is not allowed", string(c.Field)), nil)
		}
	case FieldCollection:
		if c.Kind == ChangeAdd && c.ItemID != "" {
			return faults.NewTypedError(faults.ValidationError,
				"ADD must not carry an item id; the backend assigns one on apply", nil)
		}
		if c.Kind != ChangeAdd && c.ItemID == "" {
			return faults.NewTypedError(faults.ValidationError,
				fmt.Sprintf("%s on collection field %q requires an item id", string(c.Kind), string(c.Field)), nil)
		}
	}

	if c.Kind != ChangeDelete && c.NewValue != nil {
		if err := spec.ValidatePayload(c.NewValue); err != nil {
			return err
		}
	}

	return nil
}
