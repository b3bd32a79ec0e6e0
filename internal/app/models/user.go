package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NoNamePlaceholder is shown when a user has neither a name nor a username
const NoNamePlaceholder = "no name"

// User is a person known to the bot
type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	TelegramID        int64      `json:"telegramId" db:"telegram_id"`
	Username          *string    `json:"username,omitempty" db:"username"`
	FirstName         *string    `json:"firstName,omitempty" db:"first_name"`
	LastName          *string    `json:"lastName,omitempty" db:"last_name"`
	ActiveWorkspaceID *uuid.UUID `json:"activeWorkspaceId,omitempty" db:"active_workspace_id"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// DisplayName resolves "First Last", then "@username", then NoNamePlaceholder.
func (u *User) DisplayName() string {
	if u == nil {
		return NoNamePlaceholder
	}
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p != nil {
			if v := strings.TrimSpace(*p); v != "" {
				parts = append(parts, v)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if u.Username != nil {
		if v := strings.TrimSpace(*u.Username); v != "" {
			return "@" + strings.TrimPrefix(v, "@")
		}
	}
	return NoNamePlaceholder
}

// Reachable reports whether the user can receive direct messages
func (u *User) Reachable() bool {
	return u != nil && u.TelegramID != 0
}

// TelegramProfile is the identity carried by an inbound chat update
type TelegramProfile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}
