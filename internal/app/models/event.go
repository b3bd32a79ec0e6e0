package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// EventType distinguishes standalone/master events from sub events of a master
type EventType string

const (
	EventTypeMaster EventType = "master"
	EventTypeSub    EventType = "sub"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusScheduled, EventStatusCancelled},
	EventStatusScheduled: {EventStatusCancelled, EventStatusCompleted},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Cancelled and completed are terminal.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s EventStatus) IsTerminal() bool {
	return len(eventTransitions[s]) == 0
}

// Event is something members are invited to
type Event struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	WorkspaceID   uuid.UUID   `json:"workspaceId" db:"workspace_id"`
	ParentEventID *uuid.UUID  `json:"parentEventId,omitempty" db:"parent_event_id"`
	Type          EventType   `json:"type" db:"type"`
	Title         string      `json:"title" db:"title"`
	Description   *string     `json:"description,omitempty" db:"description"`
	Location      *string     `json:"location,omitempty" db:"location"`
	StartAt       time.Time   `json:"startAt" db:"start_at"`
	EndAt         time.Time   `json:"endAt" db:"end_at"`
	Status        EventStatus `json:"status" db:"status"`
	CreatedBy     uuid.UUID   `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
	DeletedAt     *time.Time  `json:"-" db:"deleted_at"`
}

// IsDeleted reports the soft-delete marker
func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}

// HasStarted is true from the start instant on (now == StartAt counts as started)
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartAt)
}

// IsActive reports whether jobs for the event should still act on it
func (e *Event) IsActive() bool {
	return !e.IsDeleted() && !e.Status.IsTerminal()
}
