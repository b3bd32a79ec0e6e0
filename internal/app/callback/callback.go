// Package callback encodes and parses the data strings carried by inline keyboard buttons.
//
//	event:<eventId>:response:<status>
//	event:<eventId>:invite
//	event:<eventId>:cancel
//	event:create:confirm | event:create:cancel
//	ws:create | ws:change | ws:select:<workspaceId>
//	att:sel:<shortEventId>
//	att:mk:<shortEventId>:<shortUserId>:(p|l|a)
//
// Telegram limits callback data to 64 bytes, so attendance payloads carry shortid tokens.
package callback

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/shortid"
)

// Action is the kind of a parsed callback
type Action int

const (
	ActionUnknown Action = iota
	ActionRespond
	ActionInvite
	ActionCancelEvent
	ActionDraftConfirm
	ActionDraftCancel
	ActionWorkspaceCreate
	ActionWorkspaceChange
	ActionWorkspaceSelect
	ActionAttendanceSelect
	ActionAttendanceMark
)

// Fixed payloads
const (
	DraftConfirm    = "event:create:confirm"
	DraftCancel     = "event:create:cancel"
	WorkspaceCreate = "ws:create"
	WorkspaceChange = "ws:change"
)

// Data is a parsed callback. Only the fields of its Action are set.
type Data struct {
	Action      Action
	EventID     uuid.UUID
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Response    models.ResponseStatus
	Attendance  models.AttendanceStatus
}

// Respond encodes an RSVP button
func Respond(eventID uuid.UUID, status models.ResponseStatus) string {
	return "event:" + eventID.String() + ":response:" + string(status)
}

// Invite encodes the "invite participants" button
func Invite(eventID uuid.UUID) string {
	return "event:" + eventID.String() + ":invite"
}

// CancelEvent encodes the organizer's cancel button
func CancelEvent(eventID uuid.UUID) string {
	return "event:" + eventID.String() + ":cancel"
}

// WorkspaceSelect encodes a workspace picker button
func WorkspaceSelect(workspaceID uuid.UUID) string {
	return "ws:select:" + workspaceID.String()
}

// AttendanceSelect encodes an event button of the attendance menu
func AttendanceSelect(eventID uuid.UUID) string {
	return "att:sel:" + shortid.Encode(eventID)
}

// AttendanceMark encodes a present/late/absent button
func AttendanceMark(eventID, userID uuid.UUID, status models.AttendanceStatus) string {
	return "att:mk:" + shortid.Encode(eventID) + ":" + shortid.Encode(userID) + ":" + status.Code()
}

func malformed() error {
	return apperrors.NewValidationError("unsupported button, please open the menu again")
}

// Parse decodes callback data. Anything outside the grammar is a validation error.
func Parse(raw string) (Data, error) {
	parts := strings.Split(raw, ":")
	switch parts[0] {
	case "event":
		return parseEvent(raw, parts)
	case "ws":
		return parseWorkspace(parts)
	case "att":
		return parseAttendance(parts)
	}
	return Data{}, malformed()
}

func parseEvent(raw string, parts []string) (Data, error) {
	switch raw {
	case DraftConfirm:
		return Data{Action: ActionDraftConfirm}, nil
	case DraftCancel:
		return Data{Action: ActionDraftCancel}, nil
	}
	if len(parts) < 3 {
		return Data{}, malformed()
	}
	eventID, err := uuid.Parse(parts[1])
	if err != nil {
		return Data{}, malformed()
	}

	switch {
	case len(parts) == 3 && parts[2] == "invite":
		return Data{Action: ActionInvite, EventID: eventID}, nil
	case len(parts) == 3 && parts[2] == "cancel":
		return Data{Action: ActionCancelEvent, EventID: eventID}, nil
	case len(parts) == 4 && parts[2] == "response":
		status, ok := models.ParseResponseStatus(parts[3])
		if !ok {
			return Data{}, apperrors.NewValidationError("unknown response status")
		}
		return Data{Action: ActionRespond, EventID: eventID, Response: status}, nil
	}
	return Data{}, malformed()
}

func parseWorkspace(parts []string) (Data, error) {
	switch {
	case len(parts) == 2 && parts[1] == "create":
		return Data{Action: ActionWorkspaceCreate}, nil
	case len(parts) == 2 && parts[1] == "change":
		return Data{Action: ActionWorkspaceChange}, nil
	case len(parts) == 3 && parts[1] == "select":
		id, err := uuid.Parse(parts[2])
		if err != nil {
			return Data{}, malformed()
		}
		return Data{Action: ActionWorkspaceSelect, WorkspaceID: id}, nil
	}
	return Data{}, malformed()
}

func parseAttendance(parts []string) (Data, error) {
	switch {
	case len(parts) == 3 && parts[1] == "sel":
		eventID, err := shortid.Decode(parts[2])
		if err != nil {
			return Data{}, err
		}
		return Data{Action: ActionAttendanceSelect, EventID: eventID}, nil
	case len(parts) == 5 && parts[1] == "mk":
		eventID, err := shortid.Decode(parts[2])
		if err != nil {
			return Data{}, err
		}
		userID, err := shortid.Decode(parts[3])
		if err != nil {
			return Data{}, err
		}
		status, ok := models.ParseAttendanceCode(parts[4])
		if !ok {
			return Data{}, apperrors.NewValidationError("unknown attendance mark")
		}
		return Data{Action: ActionAttendanceMark, EventID: eventID, UserID: userID, Attendance: status}, nil
	}
	return Data{}, malformed()
}
