package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reefcloud/reefctl/debugctx"
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/form"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/resource"
)

const composeConfigPath = "/compose.yaml"

func newComposeCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compose",
		GroupID: groupUserFacing,
		Short:   "Draft a service's compose file locally before requesting it",
		Long: `Work on a service's compose file as a local draft. Drafts live on this
machine only and survive between invocations; pushing one requests a pending
configuration change and removes the draft. Losing a draft never loses
server-side state.`,
		Example: `  reefctl compose save --project acme web ./compose.yaml
  reefctl compose show --project acme web
  reefctl compose push --project acme web
  reefctl compose discard --project acme web`,
	}

	cmd.PersistentFlags().StringP("project", "p", "", "Project the service belongs to")

	cmd.AddCommand(newComposeEditCommand(deps))
	cmd.AddCommand(newComposeSaveCommand(deps))
	cmd.AddCommand(newComposeShowCommand(deps))
	cmd.AddCommand(newComposePushCommand(deps))
	cmd.AddCommand(newComposeDiscardCommand(deps))

	return cmd
}

func newComposeEditCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "edit <slug>",
		Short:   "Edit the compose draft interactively",
		Long:    "Open the service's compose draft in an inline editor. The edited text replaces the previous draft.",
		Example: `  reefctl compose edit --project acme web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			current, _, err := deps.Drafts.Load(ref)
			if err != nil {
				return err
			}

			prompter := form.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			text, err := prompter.EditText("compose draft for "+ref.Name, current)
			if err != nil {
				return err
			}
			if err := deps.Drafts.Save(ref, text); err != nil {
				return err
			}
			newStatusLogger(cmd).Info("draft saved", "service", ref.Name)
			return nil
		},
	}
}

func newComposeSaveCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "save <slug> [file]",
		Short: "Save a compose draft from a file or stdin",
		Long:  "Store the compose text as the service's local draft. Saving again overwrites the previous draft.",
		Example: `  reefctl compose save --project acme web ./compose.yaml
  cat compose.yaml | reefctl compose save --project acme web -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			text, err := readComposeInput(cmd, args)
			if err != nil {
				return err
			}
			if err := deps.Drafts.Save(ref, text); err != nil {
				return err
			}
			debugctx.Printf(commandContext(cmd), debugctx.GroupDrafts,
				"saved draft for %s (%d bytes)", ref, len(text))
			newStatusLogger(cmd).Info("draft saved", "service", ref.Name)
			return nil
		},
	}
}

func newComposeShowCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print the service's compose draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			text, found, err := deps.Drafts.Load(ref)
			if err != nil {
				return err
			}
			if !found {
				return faults.NewTypedError(faults.NotFoundError,
					fmt.Sprintf("no compose draft for %s", ref), nil)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
			if !strings.HasSuffix(text, "\n") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newComposePushCommand(deps Dependencies) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "push <slug>",
		Short: "Request the compose draft as a pending configuration change",
		Long: `Submit the local draft as a pending change adding the compose file to the
service's configuration. On success the draft is removed; pass --keep to
retain it.`,
		Example: `  reefctl compose push --project acme web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			text, found, err := deps.Drafts.Load(ref)
			if err != nil {
				return err
			}
			if !found {
				return faults.NewTypedError(faults.NotFoundError,
					fmt.Sprintf("no compose draft for %s", ref), nil)
			}

			result, err := gateway.Submit(commandContext(cmd), deps.Gateway, gateway.Submission{
				Intent: gateway.IntentRequestChange,
				Ref:    ref,
				Request: gateway.ChangeRequest{
					Field: resource.FieldConfigs,
					Kind:  resource.ChangeAdd,
					NewValue: map[string]any{
						"path":     composeConfigPath,
						"contents": text,
					},
				},
			})
			if err != nil {
				return err
			}

			logger := newStatusLogger(cmd)
			if result.Created != nil {
				logger.Info("change requested", "service", ref.Name, "change", result.Created.ID)
			}
			if keep {
				return nil
			}
			if err := deps.Drafts.Discard(ref); err != nil {
				// The change is already requested; a stale draft is only a
				// local nuisance.
				logger.Warn("failed to remove the local draft", "err", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the local draft after pushing")

	return cmd
}

func newComposeDiscardCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <slug>",
		Short: "Remove the service's compose draft",
		Long:  "Delete the local draft. Discarding a service without a draft is not an error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			if err := deps.Drafts.Discard(ref); err != nil {
				return err
			}
			debugctx.Printf(commandContext(cmd), debugctx.GroupDrafts, "discarded draft for %s", ref)
			newStatusLogger(cmd).Info("draft discarded", "service", ref.Name)
			return nil
		},
	}
}

func readComposeInput(cmd *cobra.Command, args []string) (string, error) {
	source := "-"
	if len(args) > 1 {
		source = strings.TrimSpace(args[1])
	}
	if source == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", faults.NewTypedError(faults.InternalError, "failed to read stdin", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", faults.NewTypedError(faults.NotFoundError,
				fmt.Sprintf("compose file %s does not exist", source), err)
		}
		return "", faults.NewTypedError(faults.InternalError, "failed to read compose file", err)
	}
	return string(data), nil
}
