package form

import (
	"strings"

	"github.com/reefcloud/reefctl/faults"
)

// ErrorMap indexes field-scoped validation details by attribute path so each
// one can be rendered next to its input, and remembers the first path for
// focusing.
type ErrorMap struct {
	byPath map[string]string
	order  []string
}

// MapSubmissionError splits a submission error into per-field details and a
// banner message. Errors without field details (transport, server, auth)
// yield an empty map and their message as the banner.
func MapSubmissionError(err error) (ErrorMap, string) {
	if err == nil {
		return ErrorMap{}, ""
	}

	fields := faults.FieldErrorsOf(err)
	if len(fields) == 0 {
		return ErrorMap{}, err.Error()
	}

	mapped := ErrorMap{byPath: make(map[string]string, len(fields))}
	for _, field := range fields {
		path := strings.TrimSpace(field.Attribute)
		if path == "" {
			continue
		}
		if _, seen := mapped.byPath[path]; !seen {
			mapped.order = append(mapped.order, path)
		}
		mapped.byPath[path] = field.Detail
	}
	return mapped, ""
}

// For looks up the detail for an exact attribute path.
func (m ErrorMap) For(path string) (string, bool) {
	detail, ok := m.byPath[path]
	return detail, ok
}

// ForField collects every detail under the field, covering nested paths such
// as "credentials.username" when asked for "credentials".
func (m ErrorMap) ForField(field string) []string {
	var details []string
	for _, path := range m.order {
		if path == field || strings.HasPrefix(path, field+".") {
			details = append(details, m.byPath[path])
		}
	}
	return details
}

// First returns the first erroring attribute path, the focus target after a
// failed submission.
func (m ErrorMap) First() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}

func (m ErrorMap) Empty() bool {
	return len(m.order) == 0
}
