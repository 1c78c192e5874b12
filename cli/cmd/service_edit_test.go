package cmd

import (
	"reflect"
	"testing"

	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/resource"
)

func TestParseScalarInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		field   resource.FieldName
		text    string
		want    resource.Value
		wantErr bool
	}{
		{name: "empty_means_clear", field: resource.FieldCommand, text: "  ", want: nil},
		{name: "command_is_plain_text", field: resource.FieldCommand, text: "./serve --fast", want: "./serve --fast"},
		{
			name:  "source_takes_json",
			field: resource.FieldSource,
			text:  `{"repo": "https://git.example/app.git", "branch": "main"}`,
			want:  map[string]any{"repo": "https://git.example/app.git", "branch": "main"},
		},
		{name: "source_rejects_plain_text", field: resource.FieldSource, text: "not json", wantErr: true},
		{
			name:  "resources_takes_json",
			field: resource.FieldResources,
			text:  `{"cpu": 2, "memory": 512}`,
			want:  map[string]any{"cpu": float64(2), "memory": float64(512)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseScalarInput(tt.field, tt.text)
			if tt.wantErr {
				if !faults.IsCategory(err, faults.ValidationError) {
					t.Fatalf("expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScalarInput: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseScalarInput() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseCollectionInput(t *testing.T) {
	t.Parallel()

	got, err := parseCollectionInput(resource.FieldPorts, `{"container_port": 8080, "protocol": "tcp"}`)
	if err != nil {
		t.Fatalf("parseCollectionInput: %v", err)
	}
	want := map[string]any{"container_port": float64(8080), "protocol": "tcp"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseCollectionInput() = %#v, want %#v", got, want)
	}

	if _, err := parseCollectionInput(resource.FieldPorts, "8080/tcp"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestSplitControllerKey(t *testing.T) {
	t.Parallel()

	field, entryKey, isEntry := splitControllerKey("ports\x00port-1")
	if field != resource.FieldPorts || entryKey != "port-1" || !isEntry {
		t.Fatalf("unexpected split: %q %q %v", field, entryKey, isEntry)
	}

	field, _, isEntry = splitControllerKey("command")
	if field != resource.FieldCommand || isEntry {
		t.Fatalf("unexpected split for scalar key: %q %v", field, isEntry)
	}
}
