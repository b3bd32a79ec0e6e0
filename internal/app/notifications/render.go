package notifications

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/callback"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/helpers"
)

const organizerMark = "👑"

// ResponseGlyph maps an RSVP to the symbol shown in participant lists
func ResponseGlyph(s models.ResponseStatus) string {
	switch s {
	case models.ResponseConfirmed:
		return "✅"
	case models.ResponseDeclined:
		return "❌"
	case models.ResponseTentative:
		return "🤔"
	default:
		return "⏳"
	}
}

// ResponseLabel is the human form of an RSVP
func ResponseLabel(s models.ResponseStatus) string {
	switch s {
	case models.ResponseConfirmed:
		return "going"
	case models.ResponseDeclined:
		return "not going"
	case models.ResponseTentative:
		return "maybe"
	default:
		return "no answer yet"
	}
}

// FormatRange renders start and end, dropping the repeated date for same-day events.
func FormatRange(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	s, e := start.In(loc), end.In(loc)
	if s.Year() == e.Year() && s.YearDay() == e.YearDay() {
		return helpers.FormatEventTime(s, loc) + " – " + e.Format("15:04")
	}
	return helpers.FormatEventTime(s, loc) + " – " + helpers.FormatEventTime(e, loc)
}

// ParticipantLine is one row of a participant list
func ParticipantLine(p *models.Participant) string {
	line := ResponseGlyph(p.Status) + " " + p.User.DisplayName()
	if p.IsOrganizer() {
		line = organizerMark + " " + line
	}
	return line
}

// EventCard renders the full event description with its participant list
func EventCard(e *models.Event, participants []*models.Participant, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n", e.Title)
	fmt.Fprintf(&b, "🕒 %s\n", FormatRange(e.StartAt, e.EndAt, loc))
	if where := helpers.Deref(e.Location); where != "" {
		fmt.Fprintf(&b, "📍 %s\n", where)
	}
	if desc := helpers.Deref(e.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	if len(participants) > 0 {
		b.WriteString("\nParticipants:\n")
		for _, p := range participants {
			b.WriteString(ParticipantLine(p))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RSVPKeyboard is the three-button response control
func RSVPKeyboard(eventID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Going", callback.Respond(eventID, models.ResponseConfirmed)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Not going", callback.Respond(eventID, models.ResponseDeclined)),
			tgbotapi.NewInlineKeyboardButtonData("🤔 Maybe", callback.Respond(eventID, models.ResponseTentative)),
		),
	)
}

// OrganizerKeyboard carries the single cancel control sent to the organizer
func OrganizerKeyboard(eventID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel event", callback.CancelEvent(eventID)),
		),
	)
}

func cancelledText(e *models.Event, loc *time.Location) string {
	return fmt.Sprintf("🚫 Event cancelled: %s (%s)", e.Title, FormatRange(e.StartAt, e.EndAt, loc))
}

func reminderText(e *models.Event, attending []*models.Participant, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Reminder: %s starts at %s", e.Title, helpers.FormatEventTime(e.StartAt, loc))
	if where := helpers.Deref(e.Location); where != "" {
		fmt.Fprintf(&b, "\n📍 %s", where)
	}
	b.WriteString("\n\nComing:\n")
	for _, p := range attending {
		b.WriteString(ParticipantLine(p))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func completedText(e *models.Event) string {
	return fmt.Sprintf("🏁 %s has finished. Thanks for coming!\nOrganizers can mark attendance with /attendance.", e.Title)
}

func statusChangedText(e *models.Event, responder *models.Participant) string {
	return fmt.Sprintf("%s %s: %s for \"%s\"",
		ResponseGlyph(responder.Status), responder.User.DisplayName(), ResponseLabel(responder.Status), e.Title)
}
