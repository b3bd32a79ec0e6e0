package models

import "github.com/google/uuid"

// EventDetails is an event with its participants, organizer first
type EventDetails struct {
	Event        *Event         `json:"event"`
	Participants []*Participant `json:"participants"`
}

// Organizer returns the organizer row, if loaded
func (d *EventDetails) Organizer() *Participant {
	for _, p := range d.Participants {
		if p.IsOrganizer() {
			return p
		}
	}
	return nil
}

// AttendanceRow is one line of the attendance panel
type AttendanceRow struct {
	Participant *Participant
	Status      *AttendanceStatus
}

// InviteResult is returned by a successful invitation
type InviteResult struct {
	EventID      uuid.UUID   `json:"eventId"`
	InvitedCount int         `json:"invitedCount"`
	Status       EventStatus `json:"status"`
}

// AttendancePanel is the marking view of one started event
type AttendancePanel struct {
	Event *Event
	Rows  []AttendanceRow
}
