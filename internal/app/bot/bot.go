// Package bot turns Telegram updates into calls on the event, workspace and attendance
// services and renders the results back into chat messages.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/notifications"
	"github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/sideeffect"
)

const (
	msgForbidden  = "You are not allowed to do that."
	msgNotFound   = "That item no longer exists."
	msgUnexpected = "Something went wrong, please try again later."
)

// Sessions persists per (user, chat) conversation state
type Sessions interface {
	Get(ctx context.Context, userID, chatID int64) (*Session, error)
	Save(ctx context.Context, userID, chatID int64, sess *Session) error
	Clear(ctx context.Context, userID, chatID int64) error
}

// FormTokens issues the tokens embedded in companion form links
type FormTokens interface {
	GenerateFormToken(userID uuid.UUID) (string, error)
}

// Options carries the presentation settings of the bot
type Options struct {
	// Username of the bot account, used for join links
	Username string
	// FormURL is the companion web form; /form is disabled when empty
	FormURL  string
	Location *time.Location
}

// Bot handles normalised updates
type Bot struct {
	sender     notifications.Sender
	events     services.EventService
	workspaces services.WorkspaceService
	attendance services.AttendanceService
	sessions   Sessions
	tokens     FormTokens
	opts       Options
	logger     zerolog.Logger
}

// New creates a bot
func New(
	sender notifications.Sender,
	events services.EventService,
	workspaces services.WorkspaceService,
	attendance services.AttendanceService,
	sessions Sessions,
	tokens FormTokens,
	opts Options,
	logger zerolog.Logger,
) *Bot {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Bot{
		sender:     sender,
		events:     events,
		workspaces: workspaces,
		attendance: attendance,
		sessions:   sessions,
		tokens:     tokens,
		opts:       opts,
		logger:     logger,
	}
}

// HandleUpdate normalises a raw update and handles it. Unsupported updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, raw tgbotapi.Update) {
	u, ok := FromTelegram(raw)
	if !ok {
		return
	}
	b.Handle(ctx, u)
}

// Handle routes one update. Errors are rendered to the chat, never returned.
func (b *Bot) Handle(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Int64("chatID", u.ChatID).Msg("Update handler panicked")
		}
	}()

	user, err := b.workspaces.EnsureUser(ctx, u.Profile)
	if err != nil {
		b.fail(ctx, u, err)
		return
	}

	switch u.Kind {
	case KindCommand:
		err = b.handleCommand(ctx, u, user)
	case KindCallback:
		err = b.handleCallback(ctx, u, user)
	case KindMessage:
		err = b.handleMessage(ctx, u, user)
	}
	if err != nil {
		b.fail(ctx, u, err)
	}
}

// Poll handles updates from long polling until ctx is done. Each update runs in its own
// goroutine.
func (b *Bot) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			go b.HandleUpdate(ctx, upd)
		}
	}
}

// UserMessage is the chat text shown for a failed operation
func UserMessage(err error) string {
	switch {
	case apperrors.IsValidation(err):
		if msg := apperrors.Message(err); msg != "" {
			return msg
		}
		return err.Error()
	case apperrors.IsForbidden(err):
		return msgForbidden
	case apperrors.IsNotFound(err):
		return msgNotFound
	}
	return msgUnexpected
}

func (b *Bot) fail(ctx context.Context, u Update, err error) {
	text := UserMessage(err)
	if text == msgUnexpected {
		b.logger.Error().Err(err).Int64("chatID", u.ChatID).Str("command", u.Command).Msg("Failed to handle update")
	} else {
		b.logger.Debug().Err(err).Int64("chatID", u.ChatID).Msg("Update rejected")
	}

	if u.Kind == KindCallback {
		b.answer(ctx, u, text, true)
		return
	}
	b.reply(ctx, u.ChatID, text, nil)
}

// reply sends a message to a chat. Delivery failures are logged only.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sideeffect.Run(ctx, b.logger, "bot.reply", sideeffect.Fields{"recipient": chatID}, func(context.Context) error {
		_, err := b.sender.Send(msg)
		return err
	})
}

// answer acknowledges a callback query so the client stops its spinner
func (b *Bot) answer(ctx context.Context, u Update, text string, alert bool) {
	cfg := tgbotapi.NewCallback(u.CallbackID, text)
	cfg.ShowAlert = alert
	sideeffect.Run(ctx, b.logger, "bot.answer", sideeffect.Fields{"recipient": u.ChatID}, func(context.Context) error {
		_, err := b.sender.Request(cfg)
		return err
	})
}

// edit replaces the text and keyboard of the message carrying the pressed button
func (b *Bot) edit(ctx context.Context, u Update, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if u.MessageID == 0 {
		b.reply(ctx, u.ChatID, text, markup)
		return
	}
	cfg := tgbotapi.NewEditMessageText(u.ChatID, u.MessageID, text)
	cfg.ReplyMarkup = markup
	sideeffect.Run(ctx, b.logger, "bot.edit", sideeffect.Fields{"recipient": u.ChatID}, func(context.Context) error {
		_, err := b.sender.Request(cfg)
		return err
	})
}

func (b *Bot) session(ctx context.Context, u Update) (*Session, error) {
	return b.sessions.Get(ctx, u.FromUserID, u.ChatID)
}

func (b *Bot) saveSession(ctx context.Context, u Update, sess *Session) error {
	return b.sessions.Save(ctx, u.FromUserID, u.ChatID, sess)
}

func (b *Bot) clearSession(ctx context.Context, u Update) error {
	return b.sessions.Clear(ctx, u.FromUserID, u.ChatID)
}

// activeWorkspace returns the caller's active workspace, or nil when there is none yet
func (b *Bot) activeWorkspace(ctx context.Context, user *models.User) (*models.Workspace, models.WorkspaceRole, error) {
	ws, role, err := b.workspaces.ActiveWorkspace(ctx, user.ID)
	if err != nil {
		if apperrors.IsValidation(err) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return ws, role, nil
}
