package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
)

// CreateEventRequest represents the body of POST /events. Times are RFC3339.
type CreateEventRequest struct {
	WorkspaceID   string  `json:"workspaceId" binding:"required,uuid" example:"6f1c2a8e-4b7d-4c1e-9d8f-2a3b4c5d6e7f"`
	Title         string  `json:"title" binding:"required,max=255" example:"Rehearsal"`
	Description   *string `json:"description,omitempty" example:"Bring the new scores"`
	Location      *string `json:"location,omitempty" example:"Hall B"`
	StartAt       string  `json:"startAt" binding:"required" example:"2025-03-01T18:00:00Z"`
	EndAt         string  `json:"endAt" binding:"required" example:"2025-03-01T20:00:00Z"`
	ParentEventID *string `json:"parentEventId,omitempty" binding:"omitempty,uuid"`
}

// UpdateEventRequest represents the body of PATCH /events/:id. Omitted fields stay unchanged.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=255" example:"Dress rehearsal"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartAt     *string `json:"startAt,omitempty" example:"2025-03-02T18:00:00Z"`
	EndAt       *string `json:"endAt,omitempty" example:"2025-03-02T20:00:00Z"`
}

// InviteRequest represents the body of POST /events/:id/invite.
// Either list participants or set All to invite every member of the event's workspace.
type InviteRequest struct {
	ParticipantIDs []string `json:"participantIds" binding:"omitempty,dive,uuid"`
	All            bool     `json:"all"`
}

// RespondRequest represents the body of POST /events/:id/respond
type RespondRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed declined tentative" example:"confirmed" enums:"confirmed,declined,tentative"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID            uuid.UUID  `json:"id"`
	WorkspaceID   uuid.UUID  `json:"workspaceId"`
	ParentEventID *uuid.UUID `json:"parentEventId,omitempty"`
	Type          string     `json:"type" example:"master" enums:"master,sub"`
	Title         string     `json:"title" example:"Rehearsal"`
	Description   *string    `json:"description,omitempty"`
	Location      *string    `json:"location,omitempty"`
	StartAt       time.Time  `json:"startAt"`
	EndAt         time.Time  `json:"endAt"`
	Status        string     `json:"status" example:"scheduled" enums:"draft,scheduled,cancelled,completed"`
	CreatedBy     uuid.UUID  `json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ParticipantResponse represents one participant of an event
type ParticipantResponse struct {
	UserID         uuid.UUID  `json:"userId"`
	DisplayName    string     `json:"displayName" example:"Anna Petrova"`
	Role           string     `json:"role" example:"participant" enums:"organizer,participant"`
	ResponseStatus string     `json:"responseStatus" example:"invited" enums:"invited,confirmed,declined,tentative"`
	InvitedAt      time.Time  `json:"invitedAt"`
	RespondedAt    *time.Time `json:"respondedAt,omitempty"`
}

// EventDetailsResponse is an event with its participants, organizer first
type EventDetailsResponse struct {
	EventResponse
	Participants []ParticipantResponse `json:"participants"`
}

// InviteResponse reports the outcome of an invitation
type InviteResponse struct {
	EventID      uuid.UUID `json:"eventId"`
	InvitedCount int       `json:"invitedCount" example:"2"`
	Status       string    `json:"status" example:"scheduled"`
}

// FromEvent converts an event model into its response form
func FromEvent(e *models.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		WorkspaceID:   e.WorkspaceID,
		ParentEventID: e.ParentEventID,
		Type:          string(e.Type),
		Title:         e.Title,
		Description:   e.Description,
		Location:      e.Location,
		StartAt:       e.StartAt,
		EndAt:         e.EndAt,
		Status:        string(e.Status),
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// FromEvents converts a list of events
func FromEvents(events []*models.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, FromEvent(e))
	}
	return out
}

// FromParticipant converts a participant row. The user is optional.
func FromParticipant(p *models.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:         p.UserID,
		DisplayName:    p.User.DisplayName(),
		Role:           string(p.Role),
		ResponseStatus: string(p.Status),
		InvitedAt:      p.InvitedAt,
		RespondedAt:    p.RespondedAt,
	}
}

// FromEventDetails converts an event with its participants
func FromEventDetails(d *models.EventDetails) EventDetailsResponse {
	participants := make([]ParticipantResponse, 0, len(d.Participants))
	for _, p := range d.Participants {
		participants = append(participants, FromParticipant(p))
	}
	return EventDetailsResponse{
		EventResponse: FromEvent(d.Event),
		Participants:  participants,
	}
}

// FromInviteResult converts an invitation outcome
func FromInviteResult(r *models.InviteResult) InviteResponse {
	return InviteResponse{
		EventID:      r.EventID,
		InvitedCount: r.InvitedCount,
		Status:       string(r.Status),
	}
}
