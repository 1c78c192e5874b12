// Package gateway defines the change submission boundary: the operations
// that turn a form submission into exactly one outbound request against the
// control plane, plus the cache reconciliation contract implementations must
// honor afterward.
package gateway

import (
	"context"
	"fmt"

	"github.com/reefcloud/reefctl/resource"
)

type Intent string

const (
	IntentRequestChange Intent = "request-change"
	IntentCancelChange  Intent = "cancel-change"
	IntentDirectMutate  Intent = "direct-mutate"
)

// ChangeRequest is the payload of a request-change submission.
type ChangeRequest struct {
	Field    resource.FieldName
	Kind     resource.ChangeKind
	ItemID   string
	NewValue resource.Value
}

// SnapshotReader fetches the authoritative state of a resource together with
// its pending change records.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, ref resource.Ref) (resource.Snapshot, error)
}

// ChangeSubmitter issues the three mutation intents. All errors are returned
// as data; implementations never panic on backend failures.
//
// Implementations must reconcile the injected cache on success: request and
// cancel invalidate the resource's snapshot key, and a direct mutation that
// renames the resource additionally invalidates the old address and any
// dependent list keys.
type ChangeSubmitter interface {
	// RequestChange submits a new change record. It refuses, without a
	// network round trip, when the cached snapshot already holds a pending
	// record for the same (field) or (field, item) pair; the backend stays
	// the final authority for the uniqueness invariant.
	RequestChange(ctx context.Context, ref resource.Ref, request ChangeRequest) (resource.ChangeRecord, error)

	// CancelChange discards a pending change record by id. Cancelling a
	// record the backend has already applied or dropped is not an error:
	// the snapshot is invalidated and the next read finds the field clean.
	CancelChange(ctx context.Context, ref resource.Ref, changeID string) error

	// DirectMutate applies a new value immediately for fields without a
	// change-request workflow. The returned ref is the resource's address
	// after the mutation; it differs from ref after a slug rename and the
	// caller must re-point navigation to it.
	DirectMutate(ctx context.Context, ref resource.Ref, field resource.FieldName, payload resource.Value) (resource.Ref, error)
}

type Gateway interface {
	SnapshotReader
	ChangeSubmitter
}

// Submission is one user form submission, tagged with its intent.
type Submission struct {
	Intent   Intent
	Ref      resource.Ref
	Request  ChangeRequest
	ChangeID string
}

// Result carries the outcome of a dispatched submission.
type Result struct {
	Created *resource.ChangeRecord
	Ref     resource.Ref
}

// Submit dispatches a submission to the matching gateway operation. A
// submission with an unknown intent is a programming error in the calling
// form, not a runtime condition, and fails fast with a panic.
func Submit(ctx context.Context, g Gateway, submission Submission) (Result, error) {
	switch submission.Intent {
	case IntentRequestChange:
		record, err := g.RequestChange(ctx, submission.Ref, submission.Request)
		if err != nil {
			return Result{Ref: submission.Ref}, err
		}
		return Result{Created: &record, Ref: submission.Ref}, nil
	case IntentCancelChange:
		if err := g.CancelChange(ctx, submission.Ref, submission.ChangeID); err != nil {
			return Result{Ref: submission.Ref}, err
		}
		return Result{Ref: submission.Ref}, nil
	case IntentDirectMutate:
		newRef, err := g.DirectMutate(ctx, submission.Ref, submission.Request.Field, submission.Request.NewValue)
		if err != nil {
			return Result{Ref: submission.Ref}, err
		}
		return Result{Ref: newRef}, nil
	default:
		panic(fmt.Sprintf("gateway: no handler for submission intent %q", string(submission.Intent)))
	}
}
