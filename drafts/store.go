// Package drafts defines local persistence for non-critical unsaved form
// text, such as an unretained compose file. Drafts are a convenience only:
// losing one never loses server-side state.
package drafts

import "github.com/reefcloud/reefctl/resource"

type Store interface {
	// Load returns the draft text for a resource, if one exists.
	Load(ref resource.Ref) (string, bool, error)

	// Save persists the draft with last-write-wins semantics.
	Save(ref resource.Ref, text string) error

	// Discard removes the draft. Discarding an absent draft is not an error.
	Discard(ref resource.Ref) error
}
