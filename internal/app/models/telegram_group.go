package models

import (
	"time"

	"github.com/google/uuid"
)

// TelegramGroup is a group chat bound to a workspace as its notification target
type TelegramGroup struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChatID      int64     `json:"chatId" db:"chat_id"`
	WorkspaceID uuid.UUID `json:"workspaceId" db:"workspace_id"`
	ChatType    string    `json:"chatType" db:"chat_type"`
	Title       string    `json:"title" db:"title"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// IsGroupChatType reports whether a Telegram chat type can host workspace notifications
func IsGroupChatType(chatType string) bool {
	return chatType == "group" || chatType == "supergroup"
}

// IsNotificationTarget reports whether the group receives event notifications
func (g *TelegramGroup) IsNotificationTarget() bool {
	return g != nil && IsGroupChatType(g.ChatType)
}
