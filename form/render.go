package form

import (
	"encoding/json"
	"fmt"

	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

const emptyPlaceholder = "<empty>"

// ValueText renders an effective value for display. Absent and explicitly
// cleared values both render as the empty placeholder; the pending marker is
// what tells them apart on screen.
func ValueText(value resource.Value, present bool) string {
	if !present || value == nil {
		return emptyPlaceholder
	}
	switch typed := value.(type) {
	case string:
		if typed == "" {
			return emptyPlaceholder
		}
		return typed
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return string(encoded)
	}
}

func statusMarker(status overlay.Status) string {
	switch status {
	case overlay.StatusPendingUpdate:
		return " (pending update)"
	case overlay.StatusPendingAdd:
		return " (pending add)"
	case overlay.StatusPendingDelete:
		return " (pending delete)"
	default:
		return ""
	}
}

// FieldLabel renders one scalar field for pickers and summaries, annotating
// pending states so edited fields are visually distinguished.
func FieldLabel(state overlay.FieldState) string {
	return fmt.Sprintf("%s: %s%s",
		string(state.Field),
		ValueText(state.Effective, state.Present),
		statusMarker(state.Status))
}

// EntryLabel renders one collection entry.
func EntryLabel(entry overlay.Entry) string {
	return fmt.Sprintf("%s: %s%s",
		entry.Key,
		ValueText(entry.Effective, entry.Effective != nil),
		statusMarker(entry.Status))
}

// CollectionSummary renders a collection header with its active count.
func CollectionSummary(state overlay.CollectionState) string {
	return fmt.Sprintf("%s (%d active)", string(state.Field), state.ActiveCount())
}
