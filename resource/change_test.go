package resource

import (
	"testing"

	"github.com/reefcloud/reefctl/faults"
)

func assertValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestChangeRecordValidate(t *testing.T) {
	t.Parallel()

	t.Run("scalar_update_ok", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{
			ID:       "chg-1",
			Field:    FieldCommand,
			Kind:     ChangeUpdate,
			NewValue: "./run --serve",
		}
		if err := record.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("scalar_update_nil_value_means_explicit_clear", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{ID: "chg-1", Field: FieldCommand, Kind: ChangeUpdate}
		if err := record.Validate(); err != nil {
			t.Fatalf("explicit clear must validate: %v", err)
		}
	})

	t.Run("scalar_rejects_add", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{Field: FieldCommand, Kind: ChangeAdd, NewValue: "x"}
		assertValidation(t, record.Validate())
	})

	t.Run("scalar_rejects_item_id", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{Field: FieldSource, Kind: ChangeUpdate, ItemID: "it-1"}
		assertValidation(t, record.Validate())
	})

	t.Run("collection_update_requires_item_id", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{
			Field:    FieldPorts,
			Kind:     ChangeUpdate,
			NewValue: map[string]any{"container_port": float64(8080)},
		}
		assertValidation(t, record.Validate())
	})

	t.Run("collection_add_rejects_item_id", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{
			Field:    FieldPorts,
			Kind:     ChangeAdd,
			ItemID:   "it-1",
			NewValue: map[string]any{"container_port": float64(8080)},
		}
		assertValidation(t, record.Validate())
	})

	t.Run("unknown_kind", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{Field: FieldCommand, Kind: ChangeKind("REPLACE")}
		assertValidation(t, record.Validate())
	})

	t.Run("unknown_field", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{Field: FieldName("volumes"), Kind: ChangeUpdate}
		assertValidation(t, record.Validate())
	})

	t.Run("delete_skips_payload_validation", func(t *testing.T) {
		t.Parallel()

		record := ChangeRecord{Field: FieldPorts, Kind: ChangeDelete, ItemID: "it-1"}
		if err := record.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestFieldPayloadSchemas(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		field   FieldName
		payload Value
		wantErr bool
	}{
		{"source_image", FieldSource, map[string]any{"image": "nginx:1.25"}, false},
		{"source_repo_branch", FieldSource, map[string]any{"repo": "https://example.com/a.git", "branch": "main"}, false},
		{"source_repo_missing_branch", FieldSource, map[string]any{"repo": "https://example.com/a.git"}, true},
		{"source_both_kinds", FieldSource, map[string]any{"image": "nginx", "repo": "x"}, true},
		{"source_empty_object", FieldSource, map[string]any{}, true},
		{"source_not_object", FieldSource, "nginx", true},
		{"slug_ok", FieldSlug, "web-frontend", false},
		{"slug_uppercase", FieldSlug, "Web", true},
		{"slug_trailing_hyphen", FieldSlug, "web-", true},
		{"resources_ok", FieldResources, map[string]any{"cpu": float64(2), "memory": float64(512)}, false},
		{"resources_negative", FieldResources, map[string]any{"cpu": float64(-1)}, true},
		{"port_ok", FieldPorts, map[string]any{"container_port": float64(8080), "protocol": "tcp"}, false},
		{"port_out_of_range", FieldPorts, map[string]any{"container_port": float64(70000)}, true},
		{"port_bad_protocol", FieldPorts, map[string]any{"container_port": float64(80), "protocol": "sctp"}, true},
		{"config_ok", FieldConfigs, map[string]any{"path": "/etc/app.conf", "contents": "x=1"}, false},
		{"config_relative_path", FieldConfigs, map[string]any{"path": "etc/app.conf", "contents": ""}, true},
		{"env_ok", FieldEnv, map[string]any{"name": "PORT", "value": "8080"}, false},
		{"env_missing_name", FieldEnv, map[string]any{"value": "8080"}, true},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			spec, ok := SpecOf(testCase.field)
			if !ok {
				t.Fatalf("field %q must be registered", testCase.field)
			}
			err := spec.ValidatePayload(testCase.payload)
			if testCase.wantErr {
				assertValidation(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFieldErrorPathsAreDotSeparated(t *testing.T) {
	t.Parallel()

	spec, _ := SpecOf(FieldSource)
	err := spec.ValidatePayload(map[string]any{"repo": "https://example.com/a.git"})
	fields := faults.FieldErrorsOf(err)
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %d", len(fields))
	}
	if fields[0].Attribute != "source.branch" {
		t.Fatalf("expected nested attribute path, got %q", fields[0].Attribute)
	}
}
