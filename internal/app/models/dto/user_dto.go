package dto

import (
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
)

// UserResponse represents the calling user in API responses
type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	TelegramID        int64      `json:"telegramId" example:"100200300"`
	Username          *string    `json:"username,omitempty" example:"anna_p"`
	FirstName         *string    `json:"firstName,omitempty" example:"Anna"`
	LastName          *string    `json:"lastName,omitempty" example:"Petrova"`
	DisplayName       string     `json:"displayName" example:"Anna Petrova"`
	ActiveWorkspaceID *uuid.UUID `json:"activeWorkspaceId,omitempty"`
}

// FromUser converts a user model into its response form
func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		TelegramID:        u.TelegramID,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		DisplayName:       u.DisplayName(),
		ActiveWorkspaceID: u.ActiveWorkspaceID,
	}
}
