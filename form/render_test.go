package form

import (
	"testing"

	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

func TestValueText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		value   resource.Value
		present bool
		want    string
	}{
		{"string", "nginx:1.25", true, "nginx:1.25"},
		{"empty_string", "", true, "<empty>"},
		{"absent", nil, false, "<empty>"},
		{"explicit_nil", nil, true, "<empty>"},
		{"number", float64(512), true, "512"},
		{"object", map[string]any{"image": "nginx:1.27"}, true, `{"image":"nginx:1.27"}`},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if got := ValueText(testCase.value, testCase.present); got != testCase.want {
				t.Fatalf("got %q, want %q", got, testCase.want)
			}
		})
	}
}

func TestFieldLabelMarkers(t *testing.T) {
	t.Parallel()

	clean := overlay.FieldState{
		Field:     resource.FieldCommand,
		Effective: "./serve",
		Present:   true,
		Status:    overlay.StatusClean,
	}
	if got := FieldLabel(clean); got != "command: ./serve" {
		t.Fatalf("unexpected clean label: %q", got)
	}

	pending := overlay.FieldState{
		Field:   resource.FieldCommand,
		Present: false,
		Status:  overlay.StatusPendingUpdate,
		Pending: &resource.ChangeRecord{ID: "chg-1"},
	}
	if got := FieldLabel(pending); got != "command: <empty> (pending update)" {
		t.Fatalf("explicit clear must render the placeholder with a marker, got %q", got)
	}
}

func TestCollectionSummaryCountsActive(t *testing.T) {
	t.Parallel()

	state := overlay.CollectionState{
		Field: resource.FieldPorts,
		Entries: []overlay.Entry{
			{Key: "port-1", Status: overlay.StatusClean},
			{Key: "port-2", Status: overlay.StatusPendingDelete},
			{Key: "chg-1", Status: overlay.StatusPendingAdd},
		},
	}
	if got := CollectionSummary(state); got != "ports (2 active)" {
		t.Fatalf("unexpected summary: %q", got)
	}

	entry := EntryLabel(state.Entries[1])
	if entry != "port-2: <empty> (pending delete)" {
		t.Fatalf("unexpected entry label: %q", entry)
	}
}
