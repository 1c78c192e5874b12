// Package gitremote verifies git-connector sources before a change request
// is submitted: it asks the remote for its advertised references and checks
// the requested branch exists. Verification is best-effort hygiene for the
// service-source form; the backend re-validates on apply.
package gitremote

import (
	"context"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/reefcloud/reefctl/faults"
)

const anonymousRemoteName = "origin"

// Verifier lists a remote's advertised branches.
type Verifier interface {
	VerifyBranch(ctx context.Context, repoURL string, branch string) error
}

type RemoteVerifier struct{}

func NewRemoteVerifier() *RemoteVerifier {
	return &RemoteVerifier{}
}

// VerifyBranch returns a field-scoped validation error when the remote does
// not advertise the branch, and a transport error when the remote itself is
// unreachable.
func (v *RemoteVerifier) VerifyBranch(ctx context.Context, repoURL string, branch string) error {
	repoURL = strings.TrimSpace(repoURL)
	branch = strings.TrimSpace(branch)
	if repoURL == "" {
		return faults.NewFieldValidationError("source verification failed",
			[]faults.FieldError{{Attribute: "source.repo", Detail: "must not be empty"}})
	}
	if branch == "" {
		return faults.NewFieldValidationError("source verification failed",
			[]faults.FieldError{{Attribute: "source.branch", Detail: "must not be empty"}})
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: anonymousRemoteName,
		URLs: []string{repoURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return faults.NewTypedError(faults.TransportError,
			fmt.Sprintf("failed to reach git remote %s", repoURL), err)
	}

	target := plumbing.NewBranchReferenceName(branch).String()
	for _, ref := range refs {
		if ref.Name().String() == target {
			return nil
		}
	}
	return faults.NewFieldValidationError("source verification failed",
		[]faults.FieldError{{
			Attribute: "source.branch",
			Detail:    fmt.Sprintf("branch %q not advertised by %s", branch, repoURL),
		}})
}
