package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yigit/huddle/internal/app/models"
)

// Kind tells which variant an Update holds
type Kind int

const (
	KindCommand Kind = iota + 1
	KindCallback
	KindMessage
)

// Update is the normalised form of an incoming Telegram update. It is built once at ingress
// and passed by value to every handler.
type Update struct {
	Kind       Kind
	FromUserID int64
	ChatID     int64
	ChatType   string
	ChatTitle  string
	Profile    models.TelegramProfile

	// Command without the slash and bot mention, KindCommand only
	Command string
	// Text is the message text, or the command arguments for KindCommand
	Text string

	CallbackID   string
	CallbackData string
	// MessageID is the message carrying the pressed button, KindCallback only
	MessageID int
}

// FromTelegram resolves a raw update. Updates the bot does not act on report false.
func FromTelegram(raw tgbotapi.Update) (Update, bool) {
	switch {
	case raw.CallbackQuery != nil:
		return fromCallback(raw.CallbackQuery)
	case raw.Message != nil:
		return fromMessage(raw.Message)
	}
	return Update{}, false
}

func profileOf(u *tgbotapi.User) models.TelegramProfile {
	return models.TelegramProfile{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

func fromMessage(msg *tgbotapi.Message) (Update, bool) {
	if msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return Update{}, false
	}

	u := Update{
		Kind:       KindMessage,
		FromUserID: msg.From.ID,
		ChatID:     msg.Chat.ID,
		ChatType:   msg.Chat.Type,
		ChatTitle:  msg.Chat.Title,
		Profile:    profileOf(msg.From),
		Text:       strings.TrimSpace(msg.Text),
	}
	if msg.IsCommand() {
		u.Kind = KindCommand
		u.Command = strings.ToLower(msg.Command())
		u.Text = strings.TrimSpace(msg.CommandArguments())
		return u, true
	}
	if u.Text == "" {
		return Update{}, false
	}
	return u, true
}

func fromCallback(q *tgbotapi.CallbackQuery) (Update, bool) {
	if q.From == nil {
		return Update{}, false
	}

	u := Update{
		Kind:         KindCallback,
		FromUserID:   q.From.ID,
		ChatID:       q.From.ID,
		ChatType:     "private",
		Profile:      profileOf(q.From),
		CallbackID:   q.ID,
		CallbackData: q.Data,
	}
	if q.Message != nil && q.Message.Chat != nil {
		u.ChatID = q.Message.Chat.ID
		u.ChatType = q.Message.Chat.Type
		u.ChatTitle = q.Message.Chat.Title
		u.MessageID = q.Message.MessageID
	}
	return u, true
}

// IsPrivate reports whether the update came from a one-to-one chat
func (u Update) IsPrivate() bool {
	return u.ChatType == "private"
}
