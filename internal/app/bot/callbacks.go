package bot

import (
	"context"
	"fmt"

	"github.com/yigit/huddle/internal/app/callback"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/notifications"
	"github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

func (b *Bot) handleCallback(ctx context.Context, u Update, user *models.User) error {
	data, err := callback.Parse(u.CallbackData)
	if err != nil {
		return err
	}

	switch data.Action {
	case callback.ActionRespond:
		return b.cbRespond(ctx, u, user, data)
	case callback.ActionInvite:
		return b.cbInvite(ctx, u, user, data)
	case callback.ActionCancelEvent:
		return b.cbCancelEvent(ctx, u, user, data)
	case callback.ActionDraftConfirm:
		return b.cbDraftConfirm(ctx, u, user)
	case callback.ActionDraftCancel:
		return b.cbDraftCancel(ctx, u)
	case callback.ActionWorkspaceCreate:
		return b.cbWorkspaceCreate(ctx, u)
	case callback.ActionWorkspaceChange:
		return b.cbWorkspaceChange(ctx, u, user)
	case callback.ActionWorkspaceSelect:
		return b.cbWorkspaceSelect(ctx, u, user, data)
	case callback.ActionAttendanceSelect:
		return b.cbAttendancePanel(ctx, u, user, data, "")
	case callback.ActionAttendanceMark:
		return b.cbAttendanceMark(ctx, u, user, data)
	}
	return apperrors.NewValidationError("unsupported button, please open the menu again")
}

// cbRespond records an RSVP and refreshes the card the button belongs to
func (b *Bot) cbRespond(ctx context.Context, u Update, user *models.User, data callback.Data) error {
	p, err := b.events.RespondToEvent(ctx, user.ID, data.EventID, string(data.Response))
	if err != nil {
		return err
	}
	b.answer(ctx, u, notifications.ResponseGlyph(p.Status)+" "+notifications.ResponseLabel(p.Status), false)

	details, err := b.events.GetEventDetails(ctx, user.ID, data.EventID)
	if err != nil {
		b.logger.Warn().Err(err).Str("eventID", data.EventID.String()).Msg("Failed to reload event card")
		return nil
	}
	rsvp := notifications.RSVPKeyboard(data.EventID)
	b.edit(ctx, u, notifications.EventCard(details.Event, details.Participants, b.opts.Location), &rsvp)
	return nil
}

func (b *Bot) cbInvite(ctx context.Context, u Update, user *models.User, data callback.Data) error {
	res, err := b.events.InviteWorkspace(ctx, user.ID, data.EventID)
	if err != nil {
		return err
	}
	b.answer(ctx, u, fmt.Sprintf("Invited %d people", res.InvitedCount), false)
	manage := notifications.OrganizerKeyboard(data.EventID)
	b.edit(ctx, u, fmt.Sprintf("Invitations sent to %d people. The event is scheduled.", res.InvitedCount), &manage)
	return nil
}

func (b *Bot) cbCancelEvent(ctx context.Context, u Update, user *models.User, data callback.Data) error {
	e, err := b.events.CancelEvent(ctx, user.ID, data.EventID)
	if err != nil {
		return err
	}
	b.answer(ctx, u, "Event cancelled", false)
	b.edit(ctx, u, "🚫 "+e.Title+" was cancelled.", nil)
	return nil
}

// cbDraftConfirm creates the event from a complete draft
func (b *Bot) cbDraftConfirm(ctx context.Context, u Update, user *models.User) error {
	sess, err := b.session(ctx, u)
	if err != nil {
		return err
	}
	if sess.Flow != FlowEventDraft || sess.Draft == nil || sess.Draft.Step != StepConfirm {
		return apperrors.NewValidationError("there is no event draft to create, send /newevent to start one")
	}
	d := sess.Draft

	e, err := b.events.CreateEvent(ctx, user.ID, services.CreateEventInput{
		WorkspaceID: d.WorkspaceID,
		Title:       d.Title,
		Description: d.Description,
		StartAt:     d.StartAt,
		EndAt:       d.EndAt,
	})
	if err != nil {
		return err
	}
	if err := b.clearSession(ctx, u); err != nil {
		b.logger.Warn().Err(err).Int64("chatID", u.ChatID).Msg("Failed to clear event draft")
	}

	b.answer(ctx, u, "Event created", false)
	b.edit(ctx, u, "✅ "+e.Title+" created as a draft.\n"+notifications.FormatRange(e.StartAt, e.EndAt, b.opts.Location), draftCreatedKeyboard(e.ID))
	return nil
}

func (b *Bot) cbDraftCancel(ctx context.Context, u Update) error {
	if err := b.clearSession(ctx, u); err != nil {
		return err
	}
	b.answer(ctx, u, "Draft discarded", false)
	b.edit(ctx, u, "The event draft was discarded.", nil)
	return nil
}

func (b *Bot) cbWorkspaceCreate(ctx context.Context, u Update) error {
	if err := b.saveSession(ctx, u, &Session{Flow: FlowAwaitingWorkspace}); err != nil {
		return err
	}
	b.answer(ctx, u, "", false)
	b.reply(ctx, u.ChatID, "Send the name of the new workspace.", nil)
	return nil
}

func (b *Bot) cbWorkspaceChange(ctx context.Context, u Update, user *models.User) error {
	list, err := b.workspaces.ListWorkspaces(ctx, user.ID)
	if err != nil {
		return err
	}
	text, markup := workspacePicker(list)
	b.answer(ctx, u, "", false)
	b.edit(ctx, u, text, markup)
	return nil
}

func (b *Bot) cbWorkspaceSelect(ctx context.Context, u Update, user *models.User, data callback.Data) error {
	ws, err := b.workspaces.SelectWorkspace(ctx, user.ID, data.WorkspaceID)
	if err != nil {
		return err
	}
	b.answer(ctx, u, "Switched to "+ws.Title, false)
	_, role, err := b.workspaces.ActiveWorkspace(ctx, user.ID)
	if err != nil {
		return err
	}
	text, markup := menuView(ws, role)
	b.edit(ctx, u, text, markup)
	return nil
}

func (b *Bot) cbAttendancePanel(ctx context.Context, u Update, user *models.User, data callback.Data, notice string) error {
	panel, err := b.attendance.Panel(ctx, user.ID, data.EventID)
	if err != nil {
		return err
	}
	b.answer(ctx, u, notice, false)
	text, markup := panelView(panel, b.opts.Location)
	b.edit(ctx, u, text, markup)
	return nil
}

func (b *Bot) cbAttendanceMark(ctx context.Context, u Update, user *models.User, data callback.Data) error {
	if err := b.attendance.Mark(ctx, user.ID, data.EventID, data.UserID, data.Attendance); err != nil {
		return err
	}
	return b.cbAttendancePanel(ctx, u, user, data, "Marked "+string(data.Attendance))
}
