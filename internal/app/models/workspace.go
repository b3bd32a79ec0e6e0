package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceRole is a member's role inside a workspace
type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "OWNER"
	WorkspaceRoleAdmin  WorkspaceRole = "ADMIN"
	WorkspaceRoleMember WorkspaceRole = "MEMBER"
)

// CanManage reports whether the role may rename the workspace, bind groups and mark attendance
func (r WorkspaceRole) CanManage() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleAdmin
}

// Workspace groups users and their events
type Workspace struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	OwnerID   uuid.UUID `json:"ownerId" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// WorkspaceMember is a (workspace, user) membership row
type WorkspaceMember struct {
	WorkspaceID uuid.UUID     `json:"workspaceId" db:"workspace_id"`
	UserID      uuid.UUID     `json:"userId" db:"user_id"`
	Role        WorkspaceRole `json:"role" db:"role"`
	JoinedAt    time.Time     `json:"joinedAt" db:"joined_at"`

	User *User `json:"user,omitempty"`
}

// MemberWorkspace is a workspace as seen by one of its members
type MemberWorkspace struct {
	Workspace
	Role   WorkspaceRole `json:"role"`
	Active bool          `json:"active"`
}
