package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
)

// CreateWorkspaceRequest represents the body of POST /workspaces
type CreateWorkspaceRequest struct {
	Title string `json:"title" binding:"required,max=100" example:"Choir"`
}

// UpdateWorkspaceRequest represents the body of PATCH /workspaces/:id
type UpdateWorkspaceRequest struct {
	Title string `json:"title" binding:"required,max=100" example:"Chamber choir"`
}

// WorkspaceResponse represents a workspace as seen by the caller
type WorkspaceResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title" example:"Choir"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Role      string    `json:"role,omitempty" example:"OWNER" enums:"OWNER,ADMIN,MEMBER"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromWorkspace converts a bare workspace. Role and active flag are left to the caller.
func FromWorkspace(ws *models.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID,
		Title:     ws.Title,
		OwnerID:   ws.OwnerID,
		CreatedAt: ws.CreatedAt,
	}
}

// FromMemberWorkspaces converts the caller's workspace list
func FromMemberWorkspaces(list []*models.MemberWorkspace) []WorkspaceResponse {
	out := make([]WorkspaceResponse, 0, len(list))
	for _, mw := range list {
		r := FromWorkspace(&mw.Workspace)
		r.Role = string(mw.Role)
		r.Active = mw.Active
		out = append(out, r)
	}
	return out
}

// WorkspaceMemberResponse represents one member of a workspace
type WorkspaceMemberResponse struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName" example:"Anna Petrova"`
	Role        string    `json:"role" example:"MEMBER" enums:"OWNER,ADMIN,MEMBER"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// FromWorkspaceMembers converts a member listing
func FromWorkspaceMembers(members []*models.WorkspaceMember) []WorkspaceMemberResponse {
	out := make([]WorkspaceMemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, WorkspaceMemberResponse{
			UserID:      m.UserID,
			DisplayName: m.User.DisplayName(),
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
		})
	}
	return out
}
