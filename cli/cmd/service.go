package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

func newServiceCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		GroupID: groupUserFacing,
		Short:   "Inspect and edit services with their pending changes overlaid",
		Long: `Read and modify service configuration. Reads always show the effective
state: the last fetched snapshot with every pending change record applied on
top. Edits to workflow fields create pending change records that a deployment
later applies; the slug changes immediately.`,
		Example: `  reefctl service show --project acme web
  reefctl service edit --project acme web
  reefctl service changes list --project acme web
  reefctl service rename --project acme web web-frontend`,
	}

	cmd.PersistentFlags().StringP("project", "p", "", "Project the service belongs to")

	cmd.AddCommand(newServiceShowCommand(deps))
	cmd.AddCommand(newServiceEditCommand(deps))
	cmd.AddCommand(newServiceChangesCommand(deps))
	cmd.AddCommand(newServiceRenameCommand(deps))

	return cmd
}

func newServiceShowCommand(deps Dependencies) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a service's effective configuration",
		Long: `Fetch the service snapshot, resolve pending changes on top of it, and
print the result as JSON. Each field carries its status: clean,
pending-update, pending-add, or pending-delete.`,
		Example: `  reefctl service show --project acme web
  reefctl service show --project acme web --query '.fields.command.value'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			snapshot, err := fetchSnapshot(ctx, deps, ref)
			if err != nil {
				return err
			}

			view := serviceView(ref, overlay.ResolveSnapshot(snapshot))
			output, err := normalizeForQuery(view)
			if err != nil {
				return err
			}
			output, err = applyQuery(ctx, output, query)
			if err != nil {
				return err
			}
			return printJSON(cmd, output)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "jq expression applied to the JSON output")

	return cmd
}

func newServiceChangesCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List and cancel a service's pending change records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list <slug>",
		Short:   "List the pending change records for a service",
		Example: `  reefctl service changes list --project acme web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			snapshot, err := fetchSnapshot(ctx, deps, ref)
			if err != nil {
				return err
			}

			pending := overlay.ResolveSnapshot(snapshot).PendingChanges()
			return printJSON(cmd, pending)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <slug> <change-id>",
		Short: "Cancel a pending change record",
		Long: `Discard a pending change before it applies. Cancelling a change the
backend has already applied is not an error: the next read simply shows the
field clean.`,
		Example: `  reefctl service changes cancel --project acme web chg-42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
				return usageError(cmd, "expected <slug> <change-id>")
			}
			changeID := strings.TrimSpace(args[1])

			_, err = gateway.Submit(commandContext(cmd), deps.Gateway, gateway.Submission{
				Intent:   gateway.IntentCancelChange,
				Ref:      ref,
				ChangeID: changeID,
			})
			if err != nil {
				return err
			}
			newStatusLogger(cmd).Info("pending change cancelled", "service", ref.Name, "change", changeID)
			return nil
		},
	})

	return cmd
}

func newServiceRenameCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <slug> <new-slug>",
		Short: "Rename a service immediately",
		Long: `Change the service slug. The slug is not part of the change-request
workflow: the rename applies at once and the service's address changes with
it.`,
		Example: `  reefctl service rename --project acme web web-frontend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}
			if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
				return usageError(cmd, "expected <slug> <new-slug>")
			}
			newSlug := strings.TrimSpace(args[1])

			result, err := gateway.Submit(commandContext(cmd), deps.Gateway, gateway.Submission{
				Intent: gateway.IntentDirectMutate,
				Ref:    ref,
				Request: gateway.ChangeRequest{
					Field:    resource.FieldSlug,
					NewValue: newSlug,
				},
			})
			if err != nil {
				return err
			}
			newStatusLogger(cmd).Info("service renamed", "from", ref.Name, "to", result.Ref.Name)
			return nil
		},
	}
}

type fieldView struct {
	Value   resource.Value `json:"value"`
	Present bool           `json:"present"`
	Status  overlay.Status `json:"status"`
	Change  string         `json:"change_id,omitempty"`
}

type entryView struct {
	Key    string         `json:"key"`
	ItemID string         `json:"item_id,omitempty"`
	Value  resource.Value `json:"value"`
	Status overlay.Status `json:"status"`
	Change string         `json:"change_id,omitempty"`
}

type collectionView struct {
	Active  int         `json:"active"`
	Entries []entryView `json:"entries"`
}

type resourceView struct {
	Project     string                    `json:"project"`
	Service     string                    `json:"service"`
	Fields      map[string]fieldView      `json:"fields"`
	Collections map[string]collectionView `json:"collections"`
	Pending     []resource.ChangeRecord   `json:"pending_changes"`
}

// serviceView flattens a resolution into the JSON shape show prints.
func serviceView(ref resource.Ref, resolution overlay.Resolution) resourceView {
	view := resourceView{
		Project:     ref.Project,
		Service:     ref.Name,
		Fields:      make(map[string]fieldView),
		Collections: make(map[string]collectionView),
		Pending:     resolution.PendingChanges(),
	}

	for _, field := range resource.EditableFields() {
		spec, known := resource.SpecOf(field)
		if !known {
			continue
		}
		if spec.Kind == resource.FieldCollection {
			state := resolution.Collection(field)
			collection := collectionView{
				Active:  state.ActiveCount(),
				Entries: make([]entryView, 0, len(state.Entries)),
			}
			for _, entry := range state.Entries {
				item := entryView{
					Key:    entry.Key,
					ItemID: entry.ItemID,
					Value:  entry.Effective,
					Status: entry.Status,
				}
				if entry.Pending != nil {
					item.Change = entry.Pending.ID
				}
				collection.Entries = append(collection.Entries, item)
			}
			view.Collections[string(field)] = collection
			continue
		}

		state := resolution.Field(field)
		rendered := fieldView{
			Value:   state.Effective,
			Present: state.Present,
			Status:  state.Status,
		}
		if state.Pending != nil {
			rendered.Change = state.Pending.ID
		}
		view.Fields[string(field)] = rendered
	}

	return view
}

// normalizeForQuery round-trips a value through JSON so jq sees plain maps
// and slices rather than Go structs.
func normalizeForQuery(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to encode output", err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to normalize output", err)
	}
	return normalized, nil
}
