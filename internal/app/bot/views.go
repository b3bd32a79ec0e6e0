package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/callback"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/notifications"
)

const helpText = `/newevent - plan an event
/events - your upcoming events
/attendance - mark who came
/workspace - workspace info and invite link
/bind - send notifications to this group
/form - open the web form
/cancel - stop the current dialog`

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func menuView(ws *models.Workspace, role models.WorkspaceRole) (string, *tgbotapi.InlineKeyboardMarkup) {
	if ws == nil {
		return "You are not in a workspace yet. Create one to start planning events.",
			keyboard(tgbotapi.NewInlineKeyboardRow(button("➕ Create workspace", callback.WorkspaceCreate)))
	}
	text := fmt.Sprintf("Workspace: %s (%s)\n\n%s", ws.Title, strings.ToLower(string(role)), helpText)
	return text, keyboard(tgbotapi.NewInlineKeyboardRow(
		button("🔁 Change workspace", callback.WorkspaceChange),
		button("➕ New workspace", callback.WorkspaceCreate),
	))
}

func workspacePicker(list []*models.MemberWorkspace) (string, *tgbotapi.InlineKeyboardMarkup) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+1)
	for _, ws := range list {
		label := ws.Title
		if ws.Active {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, callback.WorkspaceSelect(ws.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ New workspace", callback.WorkspaceCreate)))
	return "Choose a workspace:", keyboard(rows...)
}

func (b *Bot) joinLink(workspaceID uuid.UUID) string {
	if b.opts.Username == "" {
		return ""
	}
	return "https://t.me/" + b.opts.Username + "?start=ws_" + workspaceID.String()
}

func (b *Bot) workspaceView(ws *models.Workspace, role models.WorkspaceRole, members []*models.WorkspaceMember) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏠 %s\nYour role: %s\nMembers: %d\n", ws.Title, strings.ToLower(string(role)), len(members))
	for _, m := range members {
		sb.WriteString("• " + m.User.DisplayName() + "\n")
	}
	if link := b.joinLink(ws.ID); link != "" {
		sb.WriteString("\nInvite link: " + link)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func eventListView(events []*models.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "No upcoming events."
	}
	var sb strings.Builder
	sb.WriteString("Upcoming events:\n")
	for _, e := range events {
		fmt.Fprintf(&sb, "\n• %s\n  %s", e.Title, notifications.FormatRange(e.StartAt, e.EndAt, loc))
		if e.Status == models.EventStatusDraft {
			sb.WriteString(" (draft)")
		}
	}
	return sb.String()
}

func draftCreatedKeyboard(eventID uuid.UUID) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("📨 Invite participants", callback.Invite(eventID)),
		button("🚫 Cancel event", callback.CancelEvent(eventID)),
	))
}

func draftConfirmKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("✅ Create", callback.DraftConfirm),
		button("✖️ Discard", callback.DraftCancel),
	))
}

func markableView(events []*models.Event, loc *time.Location) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(events) == 0 {
		return "There are no started events you can mark.", nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events))
	for _, e := range events {
		label := e.Title + " · " + e.StartAt.In(loc).Format("02.01 15:04")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, callback.AttendanceSelect(e.ID))))
	}
	return "Choose an event to mark attendance:", keyboard(rows...)
}

var attendanceGlyphs = map[models.AttendanceStatus]string{
	models.AttendancePresent: "🟢",
	models.AttendanceLate:    "🟡",
	models.AttendanceAbsent:  "🔴",
}

func attendanceButton(eventID uuid.UUID, row models.AttendanceRow, status models.AttendanceStatus) tgbotapi.InlineKeyboardButton {
	label := attendanceGlyphs[status]
	if row.Status != nil && *row.Status == status {
		label = "• " + label
	}
	return button(label, callback.AttendanceMark(eventID, row.Participant.UserID, status))
}

func panelView(panel *models.AttendancePanel, loc *time.Location) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %s\n%s\n\n", panel.Event.Title, notifications.FormatRange(panel.Event.StartAt, panel.Event.EndAt, loc))
	if len(panel.Rows) == 0 {
		sb.WriteString("Nobody confirmed this event.")
		return sb.String(), nil
	}
	sb.WriteString("🟢 present · 🟡 late · 🔴 absent\n")

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(panel.Rows))
	for i, row := range panel.Rows {
		mark := "not marked"
		if row.Status != nil {
			mark = string(*row.Status)
		}
		fmt.Fprintf(&sb, "\n%d. %s: %s", i+1, row.Participant.User.DisplayName(), mark)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("%d", i+1), callback.AttendanceSelect(panel.Event.ID)),
			attendanceButton(panel.Event.ID, row, models.AttendancePresent),
			attendanceButton(panel.Event.ID, row, models.AttendanceLate),
			attendanceButton(panel.Event.ID, row, models.AttendanceAbsent),
		))
	}
	return sb.String(), keyboard(rows...)
}
