package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/form"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

func newServiceEditCommand(deps Dependencies) *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "edit <slug>",
		Short: "Edit a service interactively",
		Long: `Open an interactive session over the service's effective configuration.
Editing a clean field requests a pending change; selecting a field that is
already pending offers to revert it. The slug applies immediately. Repository
sources are verified against the remote before the change is requested.`,
		Example: `  reefctl service edit --project acme web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := serviceRefFromArgs(cmd, args)
			if err != nil {
				return err
			}

			session := &editSession{
				deps:     deps,
				ref:      ref,
				prompter: form.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
				logger:   newStatusLogger(cmd),
				noVerify: noVerify,
			}
			return session.run(commandContext(cmd))
		},
	}

	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip remote branch verification for repository sources")

	return cmd
}

// editSession holds the state of one interactive edit: the resource address,
// the latest resolution, and one controller per field or entry so a settling
// submission cannot be raced by another on the same field.
type editSession struct {
	deps        Dependencies
	ref         resource.Ref
	prompter    *form.Prompter
	logger      *charmlog.Logger
	noVerify    bool
	resolution  overlay.Resolution
	controllers map[string]*form.FieldController
}

func (s *editSession) run(ctx context.Context) error {
	s.controllers = make(map[string]*form.FieldController)
	if err := s.refresh(ctx); err != nil {
		return err
	}

	for {
		field, ok, err := s.prompter.PickField(s.resolution)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		spec, known := resource.SpecOf(field)
		if !known {
			continue
		}
		switch {
		case spec.Kind == resource.FieldCollection:
			err = s.editCollection(ctx, field)
		case spec.DirectMutate:
			err = s.editDirect(ctx, field)
		default:
			err = s.editScalar(ctx, field)
		}
		if err != nil {
			return err
		}
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}
}

// refresh re-reads the snapshot through the cache and re-derives every known
// controller's phase from it.
func (s *editSession) refresh(ctx context.Context) error {
	snapshot, err := fetchSnapshot(ctx, s.deps, s.ref)
	if err != nil {
		return err
	}
	s.resolution = overlay.ResolveSnapshot(snapshot)
	for key, controller := range s.controllers {
		field, entryKey, isEntry := splitControllerKey(key)
		if isEntry {
			for _, entry := range s.resolution.Collection(field).Entries {
				if entry.Key == entryKey {
					controller.RefreshEntry(entry)
					break
				}
			}
			continue
		}
		controller.Refresh(s.resolution.Field(field))
	}
	return nil
}

func (s *editSession) fieldController(field resource.FieldName) *form.FieldController {
	key := string(field)
	if controller, ok := s.controllers[key]; ok {
		return controller
	}
	controller := form.NewFieldController(s.resolution.Field(field))
	s.controllers[key] = controller
	return controller
}

func (s *editSession) entryController(field resource.FieldName, entry overlay.Entry) *form.FieldController {
	key := string(field) + "\x00" + entry.Key
	if controller, ok := s.controllers[key]; ok {
		return controller
	}
	controller := form.NewEntryController(field, entry)
	s.controllers[key] = controller
	return controller
}

func splitControllerKey(key string) (resource.FieldName, string, bool) {
	field, entryKey, isEntry := strings.Cut(key, "\x00")
	return resource.FieldName(field), entryKey, isEntry
}

func (s *editSession) editScalar(ctx context.Context, field resource.FieldName) error {
	state := s.resolution.Field(field)
	controller := s.fieldController(field)

	if controller.Revertable() {
		return s.revert(ctx, field, controller)
	}

	text, err := s.prompter.EditScalar(field, form.ValueText(state.Effective, state.Present), nil)
	if err != nil {
		return err
	}
	payload, err := parseScalarInput(field, text)
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	if field == resource.FieldSource && !s.noVerify {
		if err := s.verifySource(ctx, payload); err != nil {
			s.reportSubmissionError(field, err)
			return nil
		}
	}

	if err := controller.BeginSubmit(); err != nil {
		return err
	}
	result, err := gateway.Submit(ctx, s.deps.Gateway, gateway.Submission{
		Intent: gateway.IntentRequestChange,
		Ref:    s.ref,
		Request: gateway.ChangeRequest{
			Field:    field,
			Kind:     resource.ChangeUpdate,
			NewValue: payload,
		},
	})
	created := resource.ChangeRecord{}
	if result.Created != nil {
		created = *result.Created
	}
	controller.SettleRequested(created, err)
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	s.logger.Info("change requested", "field", string(field), "change", created.ID)
	return nil
}

func (s *editSession) editDirect(ctx context.Context, field resource.FieldName) error {
	state := s.resolution.Field(field)

	text, err := s.prompter.EditScalar(field, form.ValueText(state.Effective, state.Present), nil)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		s.reportSubmissionError(field, faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("%s must not be empty", string(field)), nil))
		return nil
	}

	result, err := gateway.Submit(ctx, s.deps.Gateway, gateway.Submission{
		Intent: gateway.IntentDirectMutate,
		Ref:    s.ref,
		Request: gateway.ChangeRequest{
			Field:    field,
			NewValue: strings.TrimSpace(text),
		},
	})
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	if result.Ref != s.ref {
		s.logger.Info("service renamed", "from", s.ref.Name, "to", result.Ref.Name)
		s.ref = result.Ref
	} else {
		s.logger.Info("field updated", "field", string(field))
	}
	return nil
}

func (s *editSession) editCollection(ctx context.Context, field resource.FieldName) error {
	state := s.resolution.Collection(field)

	entry, choice, err := s.prompter.PickEntry(state)
	if err != nil {
		return err
	}
	switch choice {
	case form.EntryBack:
		return nil
	case form.EntryAdd:
		return s.addEntry(ctx, field)
	}

	controller := s.entryController(field, entry)
	if controller.Revertable() {
		return s.revert(ctx, field, controller)
	}

	text, err := s.prompter.EditScalar(field, form.ValueText(entry.Effective, true), nil)
	if err != nil {
		return err
	}

	request := gateway.ChangeRequest{Field: field, ItemID: entry.ItemID}
	if text == "" {
		request.Kind = resource.ChangeDelete
	} else {
		payload, parseErr := parseCollectionInput(field, text)
		if parseErr != nil {
			s.reportSubmissionError(field, parseErr)
			return nil
		}
		request.Kind = resource.ChangeUpdate
		request.NewValue = payload
	}

	if err := controller.BeginSubmit(); err != nil {
		return err
	}
	result, err := gateway.Submit(ctx, s.deps.Gateway, gateway.Submission{
		Intent:  gateway.IntentRequestChange,
		Ref:     s.ref,
		Request: request,
	})
	created := resource.ChangeRecord{}
	if result.Created != nil {
		created = *result.Created
	}
	controller.SettleRequested(created, err)
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	s.logger.Info("change requested", "field", string(field), "change", created.ID)
	return nil
}

func (s *editSession) addEntry(ctx context.Context, field resource.FieldName) error {
	text, err := s.prompter.EditScalar(field, "", nil)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	payload, parseErr := parseCollectionInput(field, text)
	if parseErr != nil {
		s.reportSubmissionError(field, parseErr)
		return nil
	}

	result, err := gateway.Submit(ctx, s.deps.Gateway, gateway.Submission{
		Intent: gateway.IntentRequestChange,
		Ref:    s.ref,
		Request: gateway.ChangeRequest{
			Field:    field,
			Kind:     resource.ChangeAdd,
			NewValue: payload,
		},
	})
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	if result.Created != nil {
		s.logger.Info("change requested", "field", string(field), "change", result.Created.ID)
	}
	return nil
}

func (s *editSession) revert(ctx context.Context, field resource.FieldName, controller *form.FieldController) error {
	changeID := controller.PendingChangeID()
	confirmed, err := s.prompter.ConfirmRevert(field, changeID)
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	if err := controller.BeginSubmit(); err != nil {
		return err
	}
	_, err = gateway.Submit(ctx, s.deps.Gateway, gateway.Submission{
		Intent:   gateway.IntentCancelChange,
		Ref:      s.ref,
		ChangeID: changeID,
	})
	controller.SettleCancelled(err)
	if err != nil {
		s.reportSubmissionError(field, err)
		return nil
	}
	s.logger.Info("pending change cancelled", "field", string(field), "change", changeID)
	return nil
}

// verifySource checks a repository source against the live remote before the
// change is requested, so typos in the repo URL or branch surface as form
// errors instead of broken deployments.
func (s *editSession) verifySource(ctx context.Context, payload resource.Value) error {
	source, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	repo, _ := source["repo"].(string)
	if strings.TrimSpace(repo) == "" {
		return nil
	}
	branch, _ := source["branch"].(string)
	return s.deps.Verifier.VerifyBranch(ctx, repo, branch)
}

// reportSubmissionError renders a failed submission without aborting the
// session: field-scoped details go next to their attribute paths, everything
// else becomes a banner.
func (s *editSession) reportSubmissionError(field resource.FieldName, err error) {
	errorMap, banner := form.MapSubmissionError(err)
	if banner != "" {
		s.logger.Error(banner, "field", string(field))
		return
	}
	for _, detail := range errorMap.ForField(string(field)) {
		s.logger.Error(detail, "field", string(field))
	}
	if first := errorMap.First(); first != "" {
		if detail, ok := errorMap.For(first); ok && !strings.HasPrefix(first, string(field)) {
			s.logger.Error(detail, "field", first)
		}
	}
}

// parseScalarInput turns raw prompt text into a field payload. An empty
// submission means "explicitly clear". Structured fields take JSON objects;
// the command is plain text.
func parseScalarInput(field resource.FieldName, text string) (resource.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if field == resource.FieldCommand {
		return text, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("%s takes a JSON object", string(field)), err)
	}
	return payload, nil
}

func parseCollectionInput(field resource.FieldName, text string) (resource.Value, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("%s entries take a JSON object", string(field)), err)
	}
	return payload, nil
}
