package form

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/reefcloud/reefctl/overlay"
	"github.com/reefcloud/reefctl/resource"
)

// Prompter renders interactive form fields on the terminal.
type Prompter struct {
	stdin  io.Reader
	stdout io.Writer
}

func NewPrompter(stdin io.Reader, stdout io.Writer) *Prompter {
	return &Prompter{
		stdin:  stdin,
		stdout: stdout,
	}
}

func (p *Prompter) runField(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(false).
		WithInput(p.stdin).
		WithOutput(p.stdout)
	return form.Run()
}

// PickField offers every editable field annotated with its effective value
// and pending marker, plus a done entry. ok is false when the user is done.
func (p *Prompter) PickField(resolution overlay.Resolution) (resource.FieldName, bool, error) {
	const doneValue = ""

	options := make([]huh.Option[string], 0, len(resource.EditableFields())+1)
	for _, field := range resource.EditableFields() {
		spec, known := resource.SpecOf(field)
		if !known {
			continue
		}
		var label string
		if spec.Kind == resource.FieldCollection {
			label = CollectionSummary(resolution.Collection(field))
		} else {
			label = FieldLabel(resolution.Field(field))
		}
		options = append(options, huh.NewOption(label, string(field)))
	}
	options = append(options, huh.NewOption("done", doneValue))

	selection := doneValue
	field := huh.NewSelect[string]().
		Title("Select a field").
		Options(options...).
		Value(&selection)
	if err := p.runField(field); err != nil {
		return "", false, err
	}
	if selection == doneValue {
		return "", false, nil
	}
	return resource.FieldName(selection), true, nil
}

// EditScalar prompts for a new scalar value, pre-filled with the current
// effective text. An empty submission means "explicitly clear".
func (p *Prompter) EditScalar(field resource.FieldName, current string, validate func(string) error) (string, error) {
	value := current
	if current == emptyPlaceholder {
		value = ""
	}

	input := huh.NewInput().
		Title("New value for " + string(field)).
		Prompt("> ").
		Value(&value)
	if validate != nil {
		input = input.Validate(validate)
	}
	if err := p.runField(input); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// EditText prompts for multiline text, pre-filled with the current content.
func (p *Prompter) EditText(title string, current string) (string, error) {
	value := current
	text := huh.NewText().
		Title(title).
		Value(&value)
	if err := p.runField(text); err != nil {
		return "", err
	}
	return value, nil
}

// ConfirmRevert asks before cancelling a pending change.
func (p *Prompter) ConfirmRevert(field resource.FieldName, changeID string) (bool, error) {
	confirmed := false
	confirm := huh.NewConfirm().
		Title("Revert the pending change on " + string(field) + " (" + changeID + ")?").
		Affirmative("Revert").
		Negative("Keep").
		Value(&confirmed)
	if err := p.runField(confirm); err != nil {
		return false, err
	}
	return confirmed, nil
}

// EntryChoice is the outcome of a collection entry selection.
type EntryChoice string

const (
	EntryChosen EntryChoice = "chosen"
	EntryAdd    EntryChoice = "add"
	EntryBack   EntryChoice = "back"
)

// PickEntry selects one collection entry, annotated with pending markers,
// or the option to append a new entry.
func (p *Prompter) PickEntry(state overlay.CollectionState) (overlay.Entry, EntryChoice, error) {
	const (
		addValue  = "\x00add"
		backValue = ""
	)

	options := make([]huh.Option[string], 0, len(state.Entries)+2)
	for _, entry := range state.Entries {
		options = append(options, huh.NewOption(EntryLabel(entry), entry.Key))
	}
	options = append(options,
		huh.NewOption("add new entry", addValue),
		huh.NewOption("back", backValue),
	)

	selection := backValue
	field := huh.NewSelect[string]().
		Title("Select an entry of " + string(state.Field)).
		Options(options...).
		Value(&selection)
	if err := p.runField(field); err != nil {
		return overlay.Entry{}, EntryBack, err
	}
	switch selection {
	case backValue:
		return overlay.Entry{}, EntryBack, nil
	case addValue:
		return overlay.Entry{}, EntryAdd, nil
	}
	for _, entry := range state.Entries {
		if entry.Key == selection {
			return entry, EntryChosen, nil
		}
	}
	return overlay.Entry{}, EntryBack, errors.New("selected entry disappeared from the collection")
}
