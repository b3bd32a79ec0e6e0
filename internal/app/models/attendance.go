package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the presence recorded after an event started
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Code is the one-letter form used in callback payloads
func (s AttendanceStatus) Code() string {
	switch s {
	case AttendancePresent:
		return "p"
	case AttendanceLate:
		return "l"
	case AttendanceAbsent:
		return "a"
	}
	return ""
}

// ParseAttendanceCode maps p/l/a back to a status
func ParseAttendanceCode(code string) (AttendanceStatus, bool) {
	switch code {
	case "p":
		return AttendancePresent, true
	case "l":
		return AttendanceLate, true
	case "a":
		return AttendanceAbsent, true
	}
	return "", false
}

// Attendance is the (event, user) presence row
type Attendance struct {
	EventID  uuid.UUID        `json:"eventId" db:"event_id"`
	UserID   uuid.UUID        `json:"userId" db:"user_id"`
	Status   AttendanceStatus `json:"status" db:"status"`
	MarkedBy uuid.UUID        `json:"markedBy" db:"marked_by"`
	MarkedAt time.Time        `json:"markedAt" db:"marked_at"`
}
