package bot

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

const joinPrefix = "ws_"

func (b *Bot) handleCommand(ctx context.Context, u Update, user *models.User) error {
	switch u.Command {
	case "start":
		return b.cmdStart(ctx, u, user)
	case "menu", "help":
		return b.sendMenu(ctx, u, user)
	case "newevent":
		return b.cmdNewEvent(ctx, u, user)
	case "events":
		return b.cmdEvents(ctx, u, user)
	case "attendance":
		return b.cmdAttendance(ctx, u, user)
	case "workspace":
		return b.cmdWorkspace(ctx, u, user)
	case "bind":
		return b.cmdBind(ctx, u, user)
	case "cancel":
		return b.cmdCancel(ctx, u)
	case "form":
		return b.cmdForm(ctx, u, user)
	}
	if u.IsPrivate() {
		b.reply(ctx, u.ChatID, "Unknown command. Send /menu to see what I can do.", nil)
	}
	return nil
}

// cmdStart greets the user. "/start ws_<id>" comes from a join link and adds the user to
// that workspace first.
func (b *Bot) cmdStart(ctx context.Context, u Update, user *models.User) error {
	if strings.HasPrefix(u.Text, joinPrefix) {
		id, err := uuid.Parse(strings.TrimPrefix(u.Text, joinPrefix))
		if err != nil {
			return apperrors.NewValidationError("this invite link is broken")
		}
		ws, err := b.workspaces.JoinWorkspace(ctx, user.ID, id)
		if err != nil {
			return err
		}
		b.reply(ctx, u.ChatID, "You joined "+ws.Title+".", nil)
		return b.sendMenu(ctx, u, user)
	}

	b.reply(ctx, u.ChatID, "Hi "+user.DisplayName()+"! I help your team plan events and keep track of who comes.", nil)
	return b.sendMenu(ctx, u, user)
}

func (b *Bot) sendMenu(ctx context.Context, u Update, user *models.User) error {
	ws, role, err := b.activeWorkspace(ctx, user)
	if err != nil {
		return err
	}
	text, markup := menuView(ws, role)
	b.reply(ctx, u.ChatID, text, markup)
	return nil
}

func (b *Bot) cmdNewEvent(ctx context.Context, u Update, user *models.User) error {
	ws, _, err := b.workspaces.ActiveWorkspace(ctx, user.ID)
	if err != nil {
		return err
	}
	draft := NewDraft(ws.ID)
	if err := b.saveSession(ctx, u, &Session{Flow: FlowEventDraft, Draft: &draft}); err != nil {
		return err
	}
	b.reply(ctx, u.ChatID, "New event in "+ws.Title+". Send /cancel to stop.\n\n"+draft.Step.Prompt(), nil)
	return nil
}

func (b *Bot) cmdEvents(ctx context.Context, u Update, user *models.User) error {
	events, err := b.events.ListUpcoming(ctx, user.ID)
	if err != nil {
		return err
	}
	b.reply(ctx, u.ChatID, eventListView(events, b.opts.Location), nil)
	return nil
}

func (b *Bot) cmdAttendance(ctx context.Context, u Update, user *models.User) error {
	events, err := b.attendance.ListMarkable(ctx, user.ID)
	if err != nil {
		return err
	}
	text, markup := markableView(events, b.opts.Location)
	b.reply(ctx, u.ChatID, text, markup)
	return nil
}

func (b *Bot) cmdWorkspace(ctx context.Context, u Update, user *models.User) error {
	ws, role, err := b.activeWorkspace(ctx, user)
	if err != nil {
		return err
	}
	if ws == nil {
		return b.sendMenu(ctx, u, user)
	}
	members, err := b.workspaces.ListMembers(ctx, user.ID, ws.ID)
	if err != nil {
		return err
	}
	_, markup := menuView(ws, role)
	b.reply(ctx, u.ChatID, b.workspaceView(ws, role, members), markup)
	return nil
}

func (b *Bot) cmdBind(ctx context.Context, u Update, user *models.User) error {
	if u.IsPrivate() {
		return apperrors.NewValidationError("send /bind inside the group that should receive notifications")
	}
	if _, err := b.workspaces.BindGroup(ctx, user.ID, u.ChatID, u.ChatType, u.ChatTitle); err != nil {
		return err
	}
	ws, _, err := b.workspaces.ActiveWorkspace(ctx, user.ID)
	if err != nil {
		return err
	}
	b.reply(ctx, u.ChatID, "This chat now receives the notifications of "+ws.Title+".", nil)
	return nil
}

func (b *Bot) cmdCancel(ctx context.Context, u Update) error {
	if err := b.clearSession(ctx, u); err != nil {
		return err
	}
	b.reply(ctx, u.ChatID, "Cancelled.", nil)
	return nil
}

func (b *Bot) cmdForm(ctx context.Context, u Update, user *models.User) error {
	if b.opts.FormURL == "" || b.tokens == nil {
		return apperrors.NewValidationError("the web form is not available")
	}
	token, err := b.tokens.GenerateFormToken(user.ID)
	if err != nil {
		return err
	}
	link, err := url.Parse(b.opts.FormURL)
	if err != nil {
		return err
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()

	b.reply(ctx, user.TelegramID, "Open the form: "+link.String(), nil)
	if !u.IsPrivate() {
		b.reply(ctx, u.ChatID, "I sent you the form link in a private message.", nil)
	}
	return nil
}
