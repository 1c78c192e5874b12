package http

import (
	"encoding/json"

	"github.com/reefcloud/reefctl/resource"
)

// snapshotEnvelope is the read endpoint's body: the resource's current state
// plus the pending change records targeting it.
type snapshotEnvelope struct {
	Resource wireResource            `json:"resource"`
	Changes  []resource.ChangeRecord `json:"changes"`
}

type wireResource struct {
	Fields      map[string]resource.Value  `json:"fields"`
	Collections map[string][]resource.Item `json:"collections"`
}

type changeEnvelope struct {
	Change resource.ChangeRecord `json:"change"`
}

func decodeSnapshot(ref resource.Ref, body []byte) (resource.Snapshot, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return resource.Snapshot{}, internalError("malformed resource response", err)
	}

	snapshot := resource.Snapshot{
		Ref:     ref,
		Changes: envelope.Changes,
	}
	if len(envelope.Resource.Fields) > 0 {
		snapshot.Fields = make(map[resource.FieldName]resource.Value, len(envelope.Resource.Fields))
		for name, value := range envelope.Resource.Fields {
			snapshot.Fields[resource.FieldName(name)] = value
		}
	}
	if len(envelope.Resource.Collections) > 0 {
		snapshot.Collections = make(map[resource.FieldName][]resource.Item, len(envelope.Resource.Collections))
		for name, items := range envelope.Resource.Collections {
			snapshot.Collections[resource.FieldName(name)] = items
		}
	}
	return snapshot, nil
}

func decodeChange(body []byte) (resource.ChangeRecord, error) {
	var envelope changeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return resource.ChangeRecord{}, internalError("malformed change response", err)
	}
	if envelope.Change.ID == "" {
		return resource.ChangeRecord{}, internalError("change response is missing an id", nil)
	}
	return envelope.Change, nil
}
