package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/pkg/helpers"
	"github.com/yigit/huddle/internal/pkg/validation"
)

// Step is the position of an event draft in the creation wizard
type Step int

const (
	StepTitle Step = iota + 1
	StepDescription
	StepStartAt
	StepEndAt
	StepConfirm
)

const skipDescription = "-"

// Draft is an event under construction
type Draft struct {
	Step        Step      `json:"step"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	Title       string    `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
}

// NewDraft starts a draft for the given workspace at the title step
func NewDraft(workspaceID uuid.UUID) Draft {
	return Draft{Step: StepTitle, WorkspaceID: workspaceID}
}

// Prompt is the question asked when the wizard enters the step
func (s Step) Prompt() string {
	switch s {
	case StepTitle:
		return "What is the event called?"
	case StepDescription:
		return "Add a short description, or send - to skip."
	case StepStartAt:
		return "When does it start? Use DD.MM.YYYY HH:MM, for example 01.03.2025 18:00."
	case StepEndAt:
		return "When does it end? Use DD.MM.YYYY HH:MM."
	case StepConfirm:
		return "Create this event?"
	}
	return ""
}

// Advance feeds one line of user input to the draft. On valid input it returns the draft
// moved to the next step with that step's prompt and true. Invalid input leaves the step
// unchanged and returns a re-prompt and false.
func Advance(d Draft, input string, loc *time.Location) (Draft, string, bool) {
	input = strings.TrimSpace(input)

	switch d.Step {
	case StepTitle:
		if input == "" {
			return d, "The title cannot be empty. " + StepTitle.Prompt(), false
		}
		if _, ok := validation.Title(input, validation.EventTitleMaxLength); !ok {
			return d, fmt.Sprintf("The title must be at most %d characters. %s", validation.EventTitleMaxLength, StepTitle.Prompt()), false
		}
		d.Title = input
		d.Step = StepDescription

	case StepDescription:
		if input == skipDescription || input == "" {
			d.Description = nil
		} else {
			desc := input
			d.Description = &desc
		}
		d.Step = StepStartAt

	case StepStartAt:
		start, ok := helpers.ParseWizardTime(input, loc)
		if !ok {
			return d, "I could not read that date. " + StepStartAt.Prompt(), false
		}
		d.StartAt = start.UTC()
		d.Step = StepEndAt

	case StepEndAt:
		end, ok := helpers.ParseWizardTime(input, loc)
		if !ok {
			return d, "I could not read that date. " + StepEndAt.Prompt(), false
		}
		if !end.After(d.StartAt) {
			return d, "The end must be after the start (" + helpers.FormatEventTime(d.StartAt, loc) + "). " + StepEndAt.Prompt(), false
		}
		d.EndAt = end.UTC()
		d.Step = StepConfirm
		return d, Summary(d, loc), true

	case StepConfirm:
		return d, "Use the buttons below to create or discard the event.", false

	default:
		return d, "", false
	}
	return d, d.Step.Prompt(), true
}

// Summary renders a complete draft for the confirm step
func Summary(d Draft, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("📝 " + d.Title + "\n")
	b.WriteString("🕒 " + helpers.FormatEventTime(d.StartAt, loc) + " - " + helpers.FormatEventTime(d.EndAt, loc) + "\n")
	if d.Description != nil {
		b.WriteString("\n" + *d.Description + "\n")
	}
	b.WriteString("\n" + StepConfirm.Prompt())
	return b.String()
}
