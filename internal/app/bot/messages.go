package bot

import (
	"context"

	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

// handleMessage routes free text. A pending workspace title wins over an event draft.
func (b *Bot) handleMessage(ctx context.Context, u Update, user *models.User) error {
	sess, err := b.session(ctx, u)
	if err != nil {
		return err
	}

	switch {
	case sess.Flow == FlowAwaitingWorkspace:
		return b.receiveWorkspaceTitle(ctx, u, user)
	case sess.Flow == FlowEventDraft && sess.Draft != nil:
		return b.receiveDraftInput(ctx, u, sess)
	}

	if u.IsPrivate() {
		return b.sendMenu(ctx, u, user)
	}
	return nil
}

func (b *Bot) receiveWorkspaceTitle(ctx context.Context, u Update, user *models.User) error {
	ws, err := b.workspaces.CreateWorkspace(ctx, user.ID, u.Text)
	if err != nil {
		if apperrors.IsValidation(err) {
			b.reply(ctx, u.ChatID, UserMessage(err)+". Send another name or /cancel.", nil)
			return nil
		}
		return err
	}
	if err := b.clearSession(ctx, u); err != nil {
		return err
	}

	text := "Workspace " + ws.Title + " created."
	if link := b.joinLink(ws.ID); link != "" {
		text += "\nShare this link to invite people: " + link
	}
	b.reply(ctx, u.ChatID, text, nil)
	return b.sendMenu(ctx, u, user)
}

func (b *Bot) receiveDraftInput(ctx context.Context, u Update, sess *Session) error {
	next, prompt, advanced := Advance(*sess.Draft, u.Text, b.opts.Location)
	if advanced {
		sess.Draft = &next
		if err := b.saveSession(ctx, u, sess); err != nil {
			return err
		}
	}

	if next.Step == StepConfirm {
		b.reply(ctx, u.ChatID, prompt, draftConfirmKeyboard())
		return nil
	}
	b.reply(ctx, u.ChatID, prompt, nil)
	return nil
}
