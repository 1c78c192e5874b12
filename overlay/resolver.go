// Package overlay computes the effective, display-ready state of a resource
// by superimposing its pending change records onto the last fetched snapshot.
// Resolution is pure: it never mutates its inputs, performs no I/O, and is
// deterministic for a given snapshot/change-list pair, so it can run on every
// render against the latest cache values.
package overlay

import (
	"github.com/reefcloud/reefctl/resource"
)

type Status string

const (
	StatusClean         Status = "clean"
	StatusPendingUpdate Status = "pending-update"
	StatusPendingAdd    Status = "pending-add"
	StatusPendingDelete Status = "pending-delete"
)

// FieldState is the resolved display state of one scalar field.
//
// Present distinguishes "explicitly cleared" (a pending record with a nil new
// value, or a pending delete) from a concrete effective value. A clean field
// reflects the snapshot's own presence.
type FieldState struct {
	Field     resource.FieldName
	Effective resource.Value
	Present   bool
	Pending   *resource.ChangeRecord
	Status    Status
}

// Editable reports whether direct editing of the field is allowed. A field
// under a pending change is read-only until the change is cancelled or
// applied.
func (f FieldState) Editable() bool {
	return f.Status == StatusClean
}

// Entry is one resolved collection entry. Key is stable across renders: the
// snapshot item id, or the change id for entries introduced by a pending ADD
// that the backend has not assigned an item id yet.
type Entry struct {
	Key       string
	ItemID    string
	Effective resource.Value
	Pending   *resource.ChangeRecord
	Status    Status
}

type CollectionState struct {
	Field   resource.FieldName
	Entries []Entry
}

// ActiveCount counts entries that are part of the effective collection.
// Entries under a pending delete stay visible for display but are excluded.
func (c CollectionState) ActiveCount() int {
	count := 0
	for _, entry := range c.Entries {
		if entry.Status != StatusPendingDelete {
			count++
		}
	}
	return count
}

// Resolution holds the resolved state of every field of one resource.
type Resolution struct {
	fields      map[resource.FieldName]FieldState
	collections map[resource.FieldName]CollectionState
}

// Resolve overlays the given change records onto the snapshot. The snapshot's
// own embedded change list is ignored; callers that want it applied should
// use ResolveSnapshot.
func Resolve(snapshot resource.Snapshot, changes []resource.ChangeRecord) Resolution {
	resolution := Resolution{
		fields:      make(map[resource.FieldName]FieldState),
		collections: make(map[resource.FieldName]CollectionState),
	}

	for _, field := range resource.EditableFields() {
		spec, ok := resource.SpecOf(field)
		if !ok {
			continue
		}
		switch spec.Kind {
		case resource.FieldScalar:
			resolution.fields[field] = resolveScalar(snapshot, changes, field)
		case resource.FieldCollection:
			resolution.collections[field] = resolveCollection(snapshot, changes, field)
		}
	}

	return resolution
}

// ResolveSnapshot overlays the snapshot's own pending change list.
func ResolveSnapshot(snapshot resource.Snapshot) Resolution {
	return Resolve(snapshot, snapshot.Changes)
}

// Field returns the resolved state of a scalar field. Unknown fields resolve
// as absent and clean.
func (r Resolution) Field(field resource.FieldName) FieldState {
	if state, ok := r.fields[field]; ok {
		return state
	}
	return FieldState{Field: field, Status: StatusClean}
}

// Collection returns the resolved state of a collection field.
func (r Resolution) Collection(field resource.FieldName) CollectionState {
	if state, ok := r.collections[field]; ok {
		return state
	}
	return CollectionState{Field: field}
}

// PendingChanges lists every pending record the resolution saw, in field
// presentation order, for revert listings.
func (r Resolution) PendingChanges() []resource.ChangeRecord {
	var pending []resource.ChangeRecord
	for _, field := range resource.EditableFields() {
		if state, ok := r.fields[field]; ok && state.Pending != nil {
			pending = append(pending, *state.Pending)
		}
		if state, ok := r.collections[field]; ok {
			for _, entry := range state.Entries {
				if entry.Pending != nil {
					pending = append(pending, *entry.Pending)
				}
			}
		}
	}
	return pending
}

func resolveScalar(snapshot resource.Snapshot, changes []resource.ChangeRecord, field resource.FieldName) FieldState {
	snapshotValue, present := snapshot.FieldValue(field)

	// First match in list order wins; more than one record per scalar field
	// is a backend inconsistency the resolver tolerates without crashing.
	for i := range changes {
		record := changes[i]
		if record.Field != field || record.ItemID != "" {
			continue
		}

		pending := record
		switch record.Kind {
		case resource.ChangeDelete:
			return FieldState{
				Field:   field,
				Pending: &pending,
				Status:  StatusPendingDelete,
			}
		case resource.ChangeUpdate, resource.ChangeAdd:
			return FieldState{
				Field:     field,
				Effective: record.NewValue,
				Present:   record.NewValue != nil,
				Pending:   &pending,
				Status:    StatusPendingUpdate,
			}
		}
	}

	return FieldState{
		Field:     field,
		Effective: snapshotValue,
		Present:   present,
		Status:    StatusClean,
	}
}

func resolveCollection(snapshot resource.Snapshot, changes []resource.ChangeRecord, field resource.FieldName) CollectionState {
	items := snapshot.CollectionItems(field)

	entries := make([]Entry, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		index[item.ID] = len(entries)
		entries = append(entries, Entry{
			Key:       item.ID,
			ItemID:    item.ID,
			Effective: item.Value,
			Status:    StatusClean,
		})
	}

	for i := range changes {
		record := changes[i]
		if record.Field != field {
			continue
		}

		pending := record
		switch record.Kind {
		case resource.ChangeAdd:
			entries = append(entries, Entry{
				Key:       record.ID,
				Effective: record.NewValue,
				Pending:   &pending,
				Status:    StatusPendingAdd,
			})
		case resource.ChangeUpdate:
			position, known := index[record.ItemID]
			if !known {
				continue
			}
			entries[position].Effective = record.NewValue
			entries[position].Pending = &pending
			entries[position].Status = StatusPendingUpdate
		case resource.ChangeDelete:
			// A delete for an item the snapshot no longer holds is a race
			// with the backend apply loop; render nothing extra.
			position, known := index[record.ItemID]
			if !known {
				continue
			}
			entries[position].Pending = &pending
			entries[position].Status = StatusPendingDelete
		}
	}

	return CollectionState{Field: field, Entries: entries}
}
