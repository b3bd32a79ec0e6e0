package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole is a user's role within one event.
// Values sort organizer-first, which the details listing relies on.
type ParticipantRole string

const (
	ParticipantRoleOrganizer   ParticipantRole = "organizer"
	ParticipantRoleParticipant ParticipantRole = "participant"
)

// ResponseStatus is a participant's RSVP
type ResponseStatus string

const (
	ResponseInvited   ResponseStatus = "invited"
	ResponseConfirmed ResponseStatus = "confirmed"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseTentative ResponseStatus = "tentative"
)

// ParseResponseStatus accepts only the answers a participant may give
func ParseResponseStatus(s string) (ResponseStatus, bool) {
	switch st := ResponseStatus(s); st {
	case ResponseConfirmed, ResponseDeclined, ResponseTentative:
		return st, true
	}
	return "", false
}

// Attending is true for confirmed and tentative responses
func (s ResponseStatus) Attending() bool {
	return s == ResponseConfirmed || s == ResponseTentative
}

// Participant is the (event, user) response row
type Participant struct {
	EventID     uuid.UUID       `json:"eventId" db:"event_id"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	Role        ParticipantRole `json:"role" db:"role"`
	Status      ResponseStatus  `json:"responseStatus" db:"response_status"`
	InvitedAt   time.Time       `json:"invitedAt" db:"invited_at"`
	RespondedAt *time.Time      `json:"respondedAt,omitempty" db:"responded_at"`

	User *User `json:"user,omitempty"`
}

// IsOrganizer reports the organizer role
func (p *Participant) IsOrganizer() bool {
	return p.Role == ParticipantRoleOrganizer
}
