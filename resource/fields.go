package resource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reefcloud/reefctl/faults"
)

type FieldName string

// Editable service fields. Scalars carry one value; collections carry ordered
// items with stable identifiers.
const (
	FieldSource    FieldName = "source"
	FieldCommand   FieldName = "command"
	FieldResources FieldName = "resources"
	FieldSlug      FieldName = "slug"
	FieldPorts     FieldName = "ports"
	FieldConfigs   FieldName = "configs"
	FieldEnv       FieldName = "env"
)

type FieldKind string

const (
	FieldScalar     FieldKind = "scalar"
	FieldCollection FieldKind = "collection"
)

// FieldSpec describes one editable field: its shape, whether edits go through
// the change-request workflow or mutate the resource directly, and the schema
// its payload must satisfy. The payload shape is a tagged union keyed by
// field name rather than a loosely-typed bag.
type FieldSpec struct {
	Name         FieldName
	Kind         FieldKind
	DirectMutate bool
	Validate     func(Value) error
}

func (s FieldSpec) ValidatePayload(value Value) error {
	if s.Validate == nil {
		return nil
	}
	return s.Validate(value)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

var fieldSpecs = map[FieldName]FieldSpec{
	FieldSource: {
		Name:     FieldSource,
		Kind:     FieldScalar,
		Validate: validateSourcePayload,
	},
	FieldCommand: {
		Name:     FieldCommand,
		Kind:     FieldScalar,
		Validate: validateStringPayload(FieldCommand),
	},
	FieldResources: {
		Name:     FieldResources,
		Kind:     FieldScalar,
		Validate: validateResourcesPayload,
	},
	FieldSlug: {
		Name:         FieldSlug,
		Kind:         FieldScalar,
		DirectMutate: true,
		Validate:     validateSlugPayload,
	},
	FieldPorts: {
		Name:     FieldPorts,
		Kind:     FieldCollection,
		Validate: validatePortPayload,
	},
	FieldConfigs: {
		Name:     FieldConfigs,
		Kind:     FieldCollection,
		Validate: validateConfigPayload,
	},
	FieldEnv: {
		Name:     FieldEnv,
		Kind:     FieldCollection,
		Validate: validateEnvPayload,
	},
}

func SpecOf(field FieldName) (FieldSpec, bool) {
	spec, ok := fieldSpecs[field]
	return spec, ok
}

// EditableFields lists every known field in a fixed presentation order.
func EditableFields() []FieldName {
	return []FieldName{
		FieldSource,
		FieldCommand,
		FieldResources,
		FieldSlug,
		FieldPorts,
		FieldConfigs,
		FieldEnv,
	}
}

func fieldError(field FieldName, attribute string, detail string) error {
	path := string(field)
	if attribute != "" {
		path = path + "." + attribute
	}
	return faults.NewFieldValidationError(
		fmt.Sprintf("invalid payload for field %q", string(field)),
		[]faults.FieldError{{Attribute: path, Detail: detail}},
	)
}

func asObject(field FieldName, value Value) (map[string]any, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fieldError(field, "", "expected an object payload")
	}
	return object, nil
}

func stringAttr(object map[string]any, key string) (string, bool) {
	raw, ok := object[key]
	if !ok {
		return "", false
	}
	text, ok := raw.(string)
	return text, ok
}

func numberAttr(object map[string]any, key string) (float64, bool) {
	raw, ok := object[key]
	if !ok {
		return 0, false
	}
	switch typed := raw.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}

// validateSourcePayload accepts either an image source {"image": "..."} or a
// git source {"repo": "...", "branch": "..."}.
func validateSourcePayload(value Value) error {
	object, err := asObject(FieldSource, value)
	if err != nil {
		return err
	}

	image, hasImage := stringAttr(object, "image")
	repo, hasRepo := stringAttr(object, "repo")

	switch {
	case hasImage && hasRepo:
		return fieldError(FieldSource, "", "image and repo sources are mutually exclusive")
	case hasImage:
		if strings.TrimSpace(image) == "" {
			return fieldError(FieldSource, "image", "must not be empty")
		}
		return nil
	case hasRepo:
		if strings.TrimSpace(repo) == "" {
			return fieldError(FieldSource, "repo", "must not be empty")
		}
		branch, hasBranch := stringAttr(object, "branch")
		if !hasBranch || strings.TrimSpace(branch) == "" {
			return fieldError(FieldSource, "branch", "must not be empty")
		}
		return nil
	default:
		return fieldError(FieldSource, "", "either image or repo is required")
	}
}

func validateStringPayload(field FieldName) func(Value) error {
	return func(value Value) error {
		if _, ok := value.(string); !ok {
			return fieldError(field, "", "expected a string payload")
		}
		return nil
	}
}

func validateSlugPayload(value Value) error {
	slug, ok := value.(string)
	if !ok {
		return fieldError(FieldSlug, "", "expected a string payload")
	}
	if !slugPattern.MatchString(slug) {
		return fieldError(FieldSlug, "", "must be lowercase alphanumeric with hyphens")
	}
	return nil
}

func validateResourcesPayload(value Value) error {
	object, err := asObject(FieldResources, value)
	if err != nil {
		return err
	}
	for _, key := range []string{"cpu", "memory"} {
		if _, present := object[key]; !present {
			continue
		}
		amount, ok := numberAttr(object, key)
		if !ok {
			return fieldError(FieldResources, key, "expected a number")
		}
		if amount <= 0 {
			return fieldError(FieldResources, key, "must be greater than zero")
		}
	}
	return nil
}

func validatePortPayload(value Value) error {
	object, err := asObject(FieldPorts, value)
	if err != nil {
		return err
	}
	port, ok := numberAttr(object, "container_port")
	if !ok {
		return fieldError(FieldPorts, "container_port", "expected a number")
	}
	if port < 1 || port > 65535 {
		return fieldError(FieldPorts, "container_port", "must be between 1 and 65535")
	}
	if protocol, present := stringAttr(object, "protocol"); present {
		switch protocol {
		case "tcp", "udp":
		default:
			return fieldError(FieldPorts, "protocol", "must be tcp or udp")
		}
	}
	return nil
}

func validateConfigPayload(value Value) error {
	object, err := asObject(FieldConfigs, value)
	if err != nil {
		return err
	}
	path, ok := stringAttr(object, "path")
	if !ok || strings.TrimSpace(path) == "" {
		return fieldError(FieldConfigs, "path", "must not be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return fieldError(FieldConfigs, "path", "must be absolute")
	}
	if _, ok := stringAttr(object, "contents"); !ok {
		return fieldError(FieldConfigs, "contents", "expected a string")
	}
	return nil
}

func validateEnvPayload(value Value) error {
	object, err := asObject(FieldEnv, value)
	if err != nil {
		return err
	}
	name, ok := stringAttr(object, "name")
	if !ok || strings.TrimSpace(name) == "" {
		return fieldError(FieldEnv, "name", "must not be empty")
	}
	if _, ok := stringAttr(object, "value"); !ok {
		return fieldError(FieldEnv, "value", "expected a string")
	}
	return nil
}
