package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reefcloud/reefctl/cache"
	"github.com/reefcloud/reefctl/config"
	"github.com/reefcloud/reefctl/drafts"
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/internal/providers/gitremote"
)

const (
	groupUtility    = "utility"
	groupUserFacing = "user"
)

type Dependencies struct {
	Contexts config.ContextCatalogService
	Cache    *cache.Store
	Gateway  gateway.Gateway
	Drafts   drafts.Store
	Verifier gitremote.Verifier
}

func Execute(deps Dependencies) error {
	root := NewRootCommand(deps)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.AuthError:
		return 4
	case faults.ConflictError:
		return 5
	case faults.TransportError:
		return 6
	default:
		return 1
	}
}

// RequiresContextBootstrapPath reports whether the command at the given path
// needs a resolved context and a live gateway before it can run. Catalog
// maintenance and version output work without one.
func RequiresContextBootstrapPath(commandPath string) bool {
	normalized := strings.TrimSpace(commandPath)
	switch {
	case strings.HasPrefix(normalized, "reefctl service "):
		return true
	case strings.HasPrefix(normalized, "reefctl compose "):
		return true
	}
	return false
}

func NewRootCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reefctl",
		Short: "Manage Reef projects, services, and pending configuration changes",
		Long: `reefctl is the terminal control panel for a Reef deployment.

Use the CLI to:
  - inspect a service's configuration with pending changes overlaid
  - request, review, and revert configuration changes before they apply
  - rename services and manage local compose-file drafts`,
		Example: `  # Show a service with its pending changes annotated
  reefctl service show --project acme web

  # Request a new container image
  reefctl service edit --project acme web

  # Revert a pending change
  reefctl service changes cancel --project acme web chg-42`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddGroup(
		&cobra.Group{ID: groupUserFacing, Title: "Commands:"},
		&cobra.Group{ID: groupUtility, Title: "Utility Commands:"},
	)
	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	cmd.PersistentFlags().StringP("context", "c", "", "Context to use for this invocation")
	cmd.PersistentFlags().Bool("no-status", false, "Suppress status messages and print only command output")
	cmd.PersistentFlags().String("debug", "", "Print grouped debug information (groups: network, cache, drafts, all)")

	cmd.AddCommand(newConfigCommand(deps))
	cmd.AddCommand(newServiceCommand(deps))
	cmd.AddCommand(newComposeCommand(deps))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
