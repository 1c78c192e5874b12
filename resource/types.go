package resource

type Value = any

type Type string

const (
	TypeProject     Type = "project"
	TypeService     Type = "service"
	TypeEnvironment Type = "environment"
)

// Ref addresses one editable resource on the control plane.
type Ref struct {
	Type    Type
	Project string
	Name    string
}

func (r Ref) String() string {
	switch {
	case r.Project == "" && r.Name == "":
		return string(r.Type)
	case r.Project == "":
		return string(r.Type) + "/" + r.Name
	case r.Name == "":
		return string(r.Type) + "/" + r.Project
	default:
		return string(r.Type) + "/" + r.Project + "/" + r.Name
	}
}

func (r Ref) IsZero() bool {
	return r.Type == "" && r.Project == "" && r.Name == ""
}

// Item is one entry of a collection-valued field. ID is the backend-assigned
// stable identifier; entries created by a pending ADD have no ID yet and are
// keyed by their change id instead.
type Item struct {
	ID    string `json:"id"`
	Value Value  `json:"value"`
}

// Snapshot is the last confirmed state of a resource as returned by the
// backend, together with the pending change records targeting it. The UI
// never mutates a snapshot; refetch replaces it wholesale.
type Snapshot struct {
	Ref         Ref
	Fields      map[FieldName]Value
	Collections map[FieldName][]Item
	Changes     []ChangeRecord
}

// FieldValue reports the snapshot value of a scalar field and whether the
// field is present at all. A present field may still hold a nil value.
func (s Snapshot) FieldValue(field FieldName) (Value, bool) {
	if s.Fields == nil {
		return nil, false
	}
	value, ok := s.Fields[field]
	return value, ok
}

func (s Snapshot) CollectionItems(field FieldName) []Item {
	if s.Collections == nil {
		return nil
	}
	return s.Collections[field]
}

// PendingChange returns the first pending record targeting the given scalar
// field, or nil. List order is the tiebreak when the backend ever hands back
// more than one record for the same field.
func (s Snapshot) PendingChange(field FieldName) *ChangeRecord {
	for i := range s.Changes {
		if s.Changes[i].Field == field && s.Changes[i].ItemID == "" {
			return &s.Changes[i]
		}
	}
	return nil
}

// PendingItemChange returns the first pending record targeting the given
// collection item, or nil.
func (s Snapshot) PendingItemChange(field FieldName, itemID string) *ChangeRecord {
	for i := range s.Changes {
		if s.Changes[i].Field == field && s.Changes[i].ItemID == itemID {
			return &s.Changes[i]
		}
	}
	return nil
}
