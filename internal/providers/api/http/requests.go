package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reefcloud/reefctl/debugctx"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/resource"
)

const maxResponseBytes = 1 << 20

// GetSnapshot fetches the resource's authoritative state plus its pending
// change records, and primes the cache entry for the ref.
func (g *APIGateway) GetSnapshot(ctx context.Context, ref resource.Ref) (resource.Snapshot, error) {
	path, err := resourcePath(ref)
	if err != nil {
		return resource.Snapshot{}, err
	}

	body, err := g.execute(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return resource.Snapshot{}, err
	}

	snapshot, err := decodeSnapshot(ref, body)
	if err != nil {
		return resource.Snapshot{}, err
	}

	g.store.Set(gateway.SnapshotKey(ref), snapshot)
	return snapshot, nil
}

func (g *APIGateway) RequestChange(ctx context.Context, ref resource.Ref, request gateway.ChangeRequest) (resource.ChangeRecord, error) {
	record := resource.ChangeRecord{
		Field:    request.Field,
		Kind:     request.Kind,
		ItemID:   request.ItemID,
		NewValue: request.NewValue,
	}
	if err := record.Validate(); err != nil {
		return resource.ChangeRecord{}, err
	}

	if err := g.guardDuplicate(ref, request); err != nil {
		return resource.ChangeRecord{}, err
	}

	path, err := resourcePath(ref)
	if err != nil {
		return resource.ChangeRecord{}, err
	}

	payload := map[string]any{
		"field": string(request.Field),
		"type":  string(request.Kind),
	}
	if request.ItemID != "" {
		payload["item_id"] = request.ItemID
	}
	if request.Kind != resource.ChangeDelete {
		// null is meaningful here: it requests an explicit clear.
		payload["new_value"] = request.NewValue
	}

	body, err := g.execute(ctx, http.MethodPost, path+"/changes", payload, true)
	if err != nil {
		return resource.ChangeRecord{}, err
	}

	created, err := decodeChange(body)
	if err != nil {
		return resource.ChangeRecord{}, err
	}

	g.store.Invalidate(gateway.SnapshotKey(ref))
	return created, nil
}

func (g *APIGateway) CancelChange(ctx context.Context, ref resource.Ref, changeID string) error {
	if strings.TrimSpace(changeID) == "" {
		return validationError("change id is required", nil)
	}

	path, err := resourcePath(ref)
	if err != nil {
		return err
	}

	_, err = g.execute(ctx, http.MethodDelete, path+"/changes/"+changeID, nil, true)
	if err != nil && !isNotFound(err) {
		return err
	}

	// A 404 means the backend already applied or dropped the record; the
	// refetch after invalidation finds the field clean either way.
	g.store.Invalidate(gateway.SnapshotKey(ref))
	return nil
}

func (g *APIGateway) DirectMutate(ctx context.Context, ref resource.Ref, field resource.FieldName, payload resource.Value) (resource.Ref, error) {
	spec, ok := resource.SpecOf(field)
	if !ok {
		return ref, validationError(fmt.Sprintf("unknown field %q", string(field)), nil)
	}
	if !spec.DirectMutate {
		return ref, validationError(
			fmt.Sprintf("field %q requires the change-request workflow", string(field)), nil)
	}
	if err := spec.ValidatePayload(payload); err != nil {
		return ref, err
	}

	path, err := resourcePath(ref)
	if err != nil {
		return ref, err
	}

	body, err := g.execute(ctx, http.MethodPatch, path, map[string]any{
		"field":     string(field),
		"new_value": payload,
	}, true)
	if err != nil {
		return ref, err
	}

	updated, err := decodeSnapshot(ref, body)
	if err != nil {
		return ref, err
	}

	newRef := ref
	if field == resource.FieldSlug {
		if slug, present := updated.FieldValue(resource.FieldSlug); present {
			if text, ok := slug.(string); ok && text != "" {
				newRef.Name = text
			}
		}
	}
	updated.Ref = newRef

	if newRef != ref {
		// The resource moved: drop everything under the old address and the
		// project listing that embeds slugs, then prime the new address.
		g.store.InvalidatePrefix(gateway.SnapshotKey(ref))
		g.store.InvalidatePrefix(gateway.ServiceListKey(ref.Project))
		g.store.Set(gateway.SnapshotKey(newRef), updated)
	} else {
		g.store.Invalidate(gateway.SnapshotKey(ref))
		g.store.Set(gateway.SnapshotKey(ref), updated)
	}

	return newRef, nil
}

// guardDuplicate refuses a request-change when the cached snapshot already
// holds a pending record for the same (field) or (field, item) pair. The
// backend remains the final authority; this only keeps a well-behaved form
// from racing itself.
func (g *APIGateway) guardDuplicate(ref resource.Ref, request gateway.ChangeRequest) error {
	cached, ok := g.store.Get(gateway.SnapshotKey(ref))
	if !ok {
		return nil
	}
	snapshot, ok := cached.(resource.Snapshot)
	if !ok {
		return nil
	}

	if request.ItemID != "" {
		if pending := snapshot.PendingItemChange(request.Field, request.ItemID); pending != nil {
			return conflictError(fmt.Sprintf(
				"a change (%s) is already pending for item %s of field %q; cancel it first",
				pending.ID, request.ItemID, string(request.Field)), nil)
		}
		return nil
	}

	spec, ok := resource.SpecOf(request.Field)
	if ok && spec.Kind == resource.FieldScalar {
		if pending := snapshot.PendingChange(request.Field); pending != nil {
			return conflictError(fmt.Sprintf(
				"a change (%s) is already pending for field %q; cancel it first",
				pending.ID, string(request.Field)), nil)
		}
	}
	return nil
}

func (g *APIGateway) execute(ctx context.Context, method string, path string, payload any, mutating bool) ([]byte, error) {
	csrfToken := ""
	if mutating {
		token, err := g.csrfTokenFor(ctx)
		if err != nil {
			return nil, err
		}
		csrfToken = token
	}

	body, statusCode, err := g.doRequest(ctx, method, path, payload, csrfToken)
	if mutating && isStaleCSRF(statusCode, body) {
		token, refreshErr := g.refreshCSRFToken(ctx)
		if refreshErr != nil {
			return nil, refreshErr
		}
		body, statusCode, err = g.doRequest(ctx, method, path, payload, token)
	}
	if err != nil {
		return nil, err
	}

	if statusCode >= http.StatusBadRequest {
		return nil, classifyStatusError(statusCode, body)
	}
	return body, nil
}

func (g *APIGateway) doRequest(ctx context.Context, method string, path string, payload any, csrfToken string) ([]byte, int, error) {
	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, internalError("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, g.baseURL.String()+path, bodyReader)
	if err != nil {
		return nil, 0, internalError("failed to create request", err)
	}

	request.Header.Set("Accept", defaultMediaType)
	if bodyReader != nil {
		request.Header.Set("Content-Type", defaultMediaType)
	}
	request.Header.Set(requestIDHeader, uuid.NewString())
	for key, value := range g.defaultHeaders {
		request.Header.Set(key, value)
	}
	if csrfToken != "" {
		request.Header.Set(csrfTokenHeader, csrfToken)
	}
	g.applyAuth(request)

	debugctx.Printf(ctx, debugctx.GroupNetwork, "%s %s", method, path)

	response, err := g.client.Do(request)
	if err != nil {
		return nil, 0, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, transportError("failed to read remote response body", err)
	}

	debugctx.Printf(ctx, debugctx.GroupNetwork, "%s %s -> %d (%d bytes)",
		method, path, response.StatusCode, len(body))

	return body, response.StatusCode, nil
}

func (g *APIGateway) applyAuth(request *http.Request) {
	if g.auth == nil {
		return
	}
	switch {
	case g.auth.BearerToken != "":
		request.Header.Set("Authorization", "Bearer "+g.auth.BearerToken)
	case g.auth.BasicAuth != nil:
		request.SetBasicAuth(g.auth.BasicAuth.Username, g.auth.BasicAuth.Password)
	}
}

func isNotFound(err error) bool {
	return err != nil && isTypedNotFound(err)
}
