package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

const (
	markableLimit      = 20
	msgEventNotStarted = "event has not started yet"
)

// AttendanceService defines attendance marking operations
type AttendanceService interface {
	ListMarkable(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
	Panel(ctx context.Context, userID, eventID uuid.UUID) (*models.AttendancePanel, error)
	Mark(ctx context.Context, userID, eventID, targetUserID uuid.UUID, status models.AttendanceStatus) error
}

// attendanceServiceImpl implements the AttendanceService interface
type attendanceServiceImpl struct {
	events       EventStore
	participants ParticipantStore
	attendance   AttendanceStore
	workspaces   WorkspaceService
	members      WorkspaceStore
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAttendanceService creates a new attendance service instance
func NewAttendanceService(
	events EventStore,
	participants ParticipantStore,
	attendance AttendanceStore,
	workspaces WorkspaceService,
	members WorkspaceStore,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceServiceImpl{
		events:       events,
		participants: participants,
		attendance:   attendance,
		workspaces:   workspaces,
		members:      members,
		logger:       logger,
		now:          time.Now,
	}
}

// ListMarkable lists started events of the active workspace the caller may mark.
// Owners see all of them, everyone else only the events they organize.
func (s *attendanceServiceImpl) ListMarkable(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	ws, role, err := s.workspaces.ActiveWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	var organizer *uuid.UUID
	if role != models.WorkspaceRoleOwner {
		organizer = &userID
	}
	events, err := s.events.ListStarted(ctx, ws.ID, organizer, s.now(), markableLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing started events: %w", err)
	}
	return events, nil
}

// authorize loads a started event the caller may mark
func (s *attendanceServiceImpl) authorize(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(err)
	}

	allowed := false
	p, err := s.participants.Get(ctx, eventID, userID)
	switch {
	case err == nil:
		allowed = p.IsOrganizer()
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("error loading participant: %w", err)
	}
	if !allowed {
		role, err := s.members.GetMemberRole(ctx, event.WorkspaceID, userID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("error checking membership: %w", err)
		}
		allowed = err == nil && role == models.WorkspaceRoleOwner
	}
	if !allowed {
		return nil, apperrors.NewForbiddenError("only the organizer or the workspace owner can mark attendance")
	}

	if event.Status == models.EventStatusCancelled {
		return nil, apperrors.NewValidationError("event was cancelled")
	}
	if !event.HasStarted(s.now()) {
		return nil, apperrors.NewValidationError(msgEventNotStarted)
	}
	return event, nil
}

// Panel lists confirmed and tentative participants with their current marks
func (s *attendanceServiceImpl) Panel(ctx context.Context, userID, eventID uuid.UUID) (*models.AttendancePanel, error) {
	event, err := s.authorize(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	marks, err := s.attendance.StatusesByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error loading attendance: %w", err)
	}

	panel := &models.AttendancePanel{Event: event}
	for _, p := range participants {
		if !p.Status.Attending() {
			continue
		}
		row := models.AttendanceRow{Participant: p}
		if st, ok := marks[p.UserID]; ok {
			st := st
			row.Status = &st
		}
		panel.Rows = append(panel.Rows, row)
	}
	return panel, nil
}

// Mark records or replaces the attendance of one participant
func (s *attendanceServiceImpl) Mark(ctx context.Context, userID, eventID, targetUserID uuid.UUID, status models.AttendanceStatus) error {
	if status.Code() == "" {
		return apperrors.NewValidationError("unknown attendance status")
	}
	if _, err := s.authorize(ctx, userID, eventID); err != nil {
		return err
	}
	if _, err := s.participants.Get(ctx, eventID, targetUserID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("this person is not a participant of the event")
		}
		return fmt.Errorf("error loading participant: %w", err)
	}

	err := s.attendance.Upsert(ctx, &models.Attendance{
		EventID:  eventID,
		UserID:   targetUserID,
		Status:   status,
		MarkedBy: userID,
		MarkedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("error saving attendance: %w", err)
	}
	return nil
}
