package services

// Services defined in this package:
// - EventService: event lifecycle (create, invite, respond, cancel, edit, delete, complete)
// - WorkspaceService: users, workspaces, memberships and bound group chats
// - AttendanceService: attendance marking for started events
//
// Services depend on the narrow store interfaces below. The repositories package satisfies
// them against PostgreSQL; tests use in-memory fakes.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
)

// TxRunner runs fn in one store transaction. Store calls made with the ctx passed to fn join it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore persists users
type UserStore interface {
	UpsertByTelegramID(ctx context.Context, profile models.TelegramProfile) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	SetActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error
}

// WorkspaceStore persists workspaces and memberships
type WorkspaceStore interface {
	Create(ctx context.Context, ws *models.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*models.Workspace, error)
	AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) (bool, error)
	GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error)
	FilterMembers(ctx context.Context, workspaceID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.MemberWorkspace, error)
}

// EventStore persists events. Soft-deleted events are reported as not found.
type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error
	CompleteIfScheduled(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, e *models.Event) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	ListUpcomingForUser(ctx context.Context, userID uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error)
	ListStarted(ctx context.Context, workspaceID uuid.UUID, organizerID *uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error)
}

// ParticipantStore persists event participants
type ParticipantStore interface {
	Add(ctx context.Context, p *models.Participant) error
	AddInvited(ctx context.Context, eventID uuid.UUID, userIDs []uuid.UUID, at time.Time) ([]uuid.UUID, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Participant, error)
	UpdateResponse(ctx context.Context, eventID, userID uuid.UUID, status models.ResponseStatus, at time.Time) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Participant, error)
}

// AttendanceStore persists attendance marks
type AttendanceStore interface {
	Upsert(ctx context.Context, a *models.Attendance) error
	StatusesByEvent(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]models.AttendanceStatus, error)
}

// GroupStore persists bound group chats
type GroupStore interface {
	Upsert(ctx context.Context, g *models.TelegramGroup) error
}

// Notifier delivers event messages
type Notifier interface {
	SendEventInvitations(ctx context.Context, eventID uuid.UUID, newParticipantIDs []uuid.UUID) error
	SendEventCancelled(ctx context.Context, eventID uuid.UUID) error
	SendParticipationStatusChanged(ctx context.Context, eventID, userID uuid.UUID) error
}

// Scheduler manages the delayed jobs of an event
type Scheduler interface {
	ScheduleReminder(ctx context.Context, eventID uuid.UUID, startAt time.Time) error
	ScheduleCompletion(ctx context.Context, eventID uuid.UUID, endAt time.Time) error
	Cancel(ctx context.Context, eventID uuid.UUID)
}
