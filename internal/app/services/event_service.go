package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/helpers"
	"github.com/yigit/huddle/internal/pkg/sideeffect"
	"github.com/yigit/huddle/internal/pkg/validation"
)

const upcomingLimit = 20

// CreateEventInput carries the fields of a new event. Zero times mean the caller could not
// parse them.
type CreateEventInput struct {
	WorkspaceID   uuid.UUID
	Title         string
	Description   *string
	Location      *string
	StartAt       time.Time
	EndAt         time.Time
	ParentEventID *uuid.UUID
}

// UpdateEventInput carries the fields to change. Nil leaves a field as it is; an empty
// description or location clears it.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Location    *string
	StartAt     *time.Time
	EndAt       *time.Time
}

// EventService defines the event lifecycle operations
type EventService interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, in CreateEventInput) (*models.Event, error)
	InviteParticipants(ctx context.Context, userID, eventID uuid.UUID, participantIDs []uuid.UUID) (*models.InviteResult, error)
	InviteWorkspace(ctx context.Context, userID, eventID uuid.UUID) (*models.InviteResult, error)
	RespondToEvent(ctx context.Context, userID, eventID uuid.UUID, status string) (*models.Participant, error)
	CancelEvent(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error)
	GetEventDetails(ctx context.Context, userID, eventID uuid.UUID) (*models.EventDetails, error)
	UpdateEvent(ctx context.Context, userID, eventID uuid.UUID, in UpdateEventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error
	ListUpcoming(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
	CompleteEvent(ctx context.Context, eventID uuid.UUID) (bool, error)
}

// eventServiceImpl implements the EventService interface
type eventServiceImpl struct {
	tx           TxRunner
	events       EventStore
	participants ParticipantStore
	workspaces   WorkspaceStore
	notifier     Notifier
	scheduler    Scheduler
	logger       zerolog.Logger
	now          func() time.Time
}

// NewEventService creates a new event service instance
func NewEventService(
	tx TxRunner,
	events EventStore,
	participants ParticipantStore,
	workspaces WorkspaceStore,
	notifier Notifier,
	scheduler Scheduler,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		tx:           tx,
		events:       events,
		participants: participants,
		workspaces:   workspaces,
		notifier:     notifier,
		scheduler:    scheduler,
		logger:       logger,
		now:          time.Now,
	}
}

func eventNotFound(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewResourceNotFoundError("event not found")
	}
	return fmt.Errorf("error loading event: %w", err)
}

func validateTitle(title string) (string, error) {
	title, ok := validation.Title(title, validation.EventTitleMaxLength)
	if title == "" {
		return "", apperrors.NewValidationError("title is required")
	}
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("title must be at most %d characters", validation.EventTitleMaxLength))
	}
	return title, nil
}

func validateTimeRange(start, end time.Time) error {
	if start.IsZero() {
		return apperrors.NewValidationError("startAt must be a valid timestamp")
	}
	if end.IsZero() {
		return apperrors.NewValidationError("endAt must be a valid timestamp")
	}
	if !end.After(start) {
		return apperrors.NewValidationError("endAt must be after startAt")
	}
	return nil
}

// ParseTimeRange parses RFC3339 start and end strings. Unparseable values come back as zero
// times so the service reports them.
func ParseTimeRange(start, end string) (time.Time, time.Time) {
	s, _ := helpers.ParseInstant(start)
	e, _ := helpers.ParseInstant(end)
	return s, e
}

// requireOrganizer returns ForbiddenError unless userID organizes the event
func (s *eventServiceImpl) requireOrganizer(ctx context.Context, eventID, userID uuid.UUID) error {
	p, err := s.participants.Get(ctx, eventID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewForbiddenError("only the organizer can do this")
		}
		return fmt.Errorf("error loading participant: %w", err)
	}
	if !p.IsOrganizer() {
		return apperrors.NewForbiddenError("only the organizer can do this")
	}
	return nil
}

// CreateEvent creates a draft event with the caller as its confirmed organizer
func (s *eventServiceImpl) CreateEvent(ctx context.Context, userID uuid.UUID, in CreateEventInput) (*models.Event, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateTimeRange(in.StartAt, in.EndAt); err != nil {
		return nil, err
	}

	if _, err := s.workspaces.GetMemberRole(ctx, in.WorkspaceID, userID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewForbiddenError("you are not a member of this workspace")
		}
		return nil, fmt.Errorf("error checking membership: %w", err)
	}

	event := &models.Event{
		WorkspaceID: in.WorkspaceID,
		Type:        models.EventTypeMaster,
		Title:       title,
		Description: helpers.TrimToNil(in.Description),
		Location:    helpers.TrimToNil(in.Location),
		StartAt:     in.StartAt.UTC(),
		EndAt:       in.EndAt.UTC(),
		Status:      models.EventStatusDraft,
		CreatedBy:   userID,
	}

	if in.ParentEventID != nil {
		parent, err := s.events.GetByID(ctx, *in.ParentEventID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewValidationError("parent event not found")
			}
			return nil, fmt.Errorf("error loading parent event: %w", err)
		}
		if parent.WorkspaceID != in.WorkspaceID || parent.Type != models.EventTypeMaster {
			return nil, apperrors.NewValidationError("parent must be a master event of the same workspace")
		}
		event.Type = models.EventTypeSub
		event.ParentEventID = &parent.ID
	}

	now := s.now()
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.events.Create(ctx, event); err != nil {
			return err
		}
		return s.participants.Add(ctx, &models.Participant{
			EventID:     event.ID,
			UserID:      userID,
			Role:        models.ParticipantRoleOrganizer,
			Status:      models.ResponseConfirmed,
			InvitedAt:   now,
			RespondedAt: &now,
		})
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	s.logger.Info().
		Str("eventID", event.ID.String()).
		Str("workspaceID", event.WorkspaceID.String()).
		Msg("Event created")
	return event, nil
}

// InviteParticipants invites workspace members to a draft event and schedules it.
// The event row stays locked for the whole transaction so concurrent invitations serialize.
func (s *eventServiceImpl) InviteParticipants(ctx context.Context, userID, eventID uuid.UUID, participantIDs []uuid.UUID) (*models.InviteResult, error) {
	var (
		event   *models.Event
		invited []uuid.UUID
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return eventNotFound(err)
		}
		if event.Status != models.EventStatusDraft {
			return apperrors.NewValidationError("invitations can only be sent for draft events")
		}
		if err := s.requireOrganizer(ctx, eventID, userID); err != nil {
			return err
		}

		candidates := dedupeIDs(participantIDs, userID)
		members, err := s.workspaces.FilterMembers(ctx, event.WorkspaceID, candidates)
		if err != nil {
			return fmt.Errorf("error filtering members: %w", err)
		}
		if len(members) == 0 {
			return apperrors.NewValidationError("no workspace members to invite")
		}

		invited, err = s.participants.AddInvited(ctx, eventID, members, s.now())
		if err != nil {
			return fmt.Errorf("error inviting participants: %w", err)
		}
		if err := s.events.UpdateStatus(ctx, eventID, models.EventStatusScheduled); err != nil {
			return fmt.Errorf("error scheduling event: %w", err)
		}
		event.Status = models.EventStatusScheduled
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := sideeffect.Fields{"eventID": eventID.String()}
	sideeffect.Run(ctx, s.logger, "notify.invitations", fields, func(ctx context.Context) error {
		return s.notifier.SendEventInvitations(ctx, eventID, invited)
	})
	s.scheduleJobs(ctx, event)

	s.logger.Info().
		Str("eventID", eventID.String()).
		Int("invited", len(invited)).
		Msg("Participants invited")
	return &models.InviteResult{EventID: eventID, InvitedCount: len(invited), Status: event.Status}, nil
}

func (s *eventServiceImpl) scheduleJobs(ctx context.Context, event *models.Event) {
	fields := sideeffect.Fields{"eventID": event.ID.String()}
	sideeffect.Run(ctx, s.logger, "schedule.reminder", fields, func(ctx context.Context) error {
		return s.scheduler.ScheduleReminder(ctx, event.ID, event.StartAt)
	})
	sideeffect.Run(ctx, s.logger, "schedule.completion", fields, func(ctx context.Context) error {
		return s.scheduler.ScheduleCompletion(ctx, event.ID, event.EndAt)
	})
}

func (s *eventServiceImpl) cancelJobs(ctx context.Context, eventID uuid.UUID) {
	sideeffect.Run(ctx, s.logger, "schedule.cancel", sideeffect.Fields{"eventID": eventID.String()}, func(ctx context.Context) error {
		s.scheduler.Cancel(ctx, eventID)
		return nil
	})
}

// dedupeIDs drops duplicates, the nil id and the excluded id while keeping order
func dedupeIDs(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// InviteWorkspace invites every other member of the event's workspace
func (s *eventServiceImpl) InviteWorkspace(ctx context.Context, userID, eventID uuid.UUID) (*models.InviteResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(err)
	}
	members, err := s.workspaces.ListMembers(ctx, event.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return s.InviteParticipants(ctx, userID, eventID, ids)
}

// RespondToEvent records the caller's answer. Answers close at the start instant.
func (s *eventServiceImpl) RespondToEvent(ctx context.Context, userID, eventID uuid.UUID, status string) (*models.Participant, error) {
	answer, ok := models.ParseResponseStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("status must be one of confirmed, declined, tentative")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(err)
	}
	if event.Status.IsTerminal() {
		return nil, apperrors.NewForbiddenError("this event no longer accepts responses")
	}
	now := s.now()
	if event.HasStarted(now) {
		return nil, apperrors.NewForbiddenError("responses are closed once the event has started")
	}

	participant, err := s.participants.Get(ctx, eventID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewForbiddenError("you are not invited to this event")
		}
		return nil, fmt.Errorf("error loading participant: %w", err)
	}

	if err := s.participants.UpdateResponse(ctx, eventID, userID, answer, now); err != nil {
		return nil, fmt.Errorf("error saving response: %w", err)
	}
	participant.Status = answer
	participant.RespondedAt = &now

	if !participant.IsOrganizer() {
		sideeffect.Run(ctx, s.logger, "notify.status_changed", sideeffect.Fields{
			"eventID": eventID.String(),
			"userID":  userID.String(),
		}, func(ctx context.Context) error {
			return s.notifier.SendParticipationStatusChanged(ctx, eventID, userID)
		})
	}
	return participant, nil
}

// CancelEvent cancels a draft or scheduled event, drops its jobs and tells the participants
func (s *eventServiceImpl) CancelEvent(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	var (
		event    *models.Event
		wasDraft bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return eventNotFound(err)
		}
		if err := s.requireOrganizer(ctx, eventID, userID); err != nil {
			return err
		}
		wasDraft = event.Status == models.EventStatusDraft
		if !event.Status.CanTransitionTo(models.EventStatusCancelled) {
			return apperrors.NewValidationError(fmt.Sprintf("event is already %s", event.Status))
		}
		if err := s.events.UpdateStatus(ctx, eventID, models.EventStatusCancelled); err != nil {
			return fmt.Errorf("error cancelling event: %w", err)
		}
		event.Status = models.EventStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cancelJobs(ctx, eventID)
	// nobody was told about a draft
	if !wasDraft {
		sideeffect.Run(ctx, s.logger, "notify.cancelled", sideeffect.Fields{"eventID": eventID.String()}, func(ctx context.Context) error {
			return s.notifier.SendEventCancelled(ctx, eventID)
		})
	}

	s.logger.Info().Str("eventID", eventID.String()).Msg("Event cancelled")
	return event, nil
}

// GetEventDetails returns the event with its participants to anyone taking part in it
func (s *eventServiceImpl) GetEventDetails(ctx context.Context, userID, eventID uuid.UUID) (*models.EventDetails, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(err)
	}
	if _, err := s.participants.Get(ctx, eventID, userID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewForbiddenError("you are not a participant of this event")
		}
		return nil, fmt.Errorf("error loading participant: %w", err)
	}

	participants, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	return &models.EventDetails{Event: event, Participants: participants}, nil
}

// UpdateEvent edits an open event. Moving a scheduled event moves its jobs too.
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, userID, eventID uuid.UUID, in UpdateEventInput) (*models.Event, error) {
	var (
		event        *models.Event
		timesChanged bool
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return eventNotFound(err)
		}
		if err := s.requireOrganizer(ctx, eventID, userID); err != nil {
			return err
		}
		if event.Status.IsTerminal() {
			return apperrors.NewValidationError(fmt.Sprintf("a %s event cannot be edited", event.Status))
		}

		if in.Title != nil {
			title, err := validateTitle(*in.Title)
			if err != nil {
				return err
			}
			event.Title = title
		}
		if in.Description != nil {
			event.Description = helpers.TrimToNil(in.Description)
		}
		if in.Location != nil {
			event.Location = helpers.TrimToNil(in.Location)
		}
		if in.StartAt != nil && !in.StartAt.Equal(event.StartAt) {
			event.StartAt = in.StartAt.UTC()
			timesChanged = true
		}
		if in.EndAt != nil && !in.EndAt.Equal(event.EndAt) {
			event.EndAt = in.EndAt.UTC()
			timesChanged = true
		}
		if err := validateTimeRange(event.StartAt, event.EndAt); err != nil {
			return err
		}
		return s.events.Update(ctx, event)
	})
	if err != nil {
		if apperrors.IsValidation(err) || apperrors.IsForbidden(err) || apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating event: %w", err)
	}

	if timesChanged && event.Status == models.EventStatusScheduled {
		s.cancelJobs(ctx, eventID)
		s.scheduleJobs(ctx, event)
	}
	return event, nil
}

// DeleteEvent soft-deletes an event and drops its jobs
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.events.GetForUpdate(ctx, eventID); err != nil {
			return eventNotFound(err)
		}
		if err := s.requireOrganizer(ctx, eventID, userID); err != nil {
			return err
		}
		if err := s.events.SoftDelete(ctx, eventID, s.now()); err != nil {
			return fmt.Errorf("error deleting event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cancelJobs(ctx, eventID)
	s.logger.Info().Str("eventID", eventID.String()).Msg("Event deleted")
	return nil
}

// ListUpcoming lists the caller's events that have not ended, soonest first
func (s *eventServiceImpl) ListUpcoming(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	events, err := s.events.ListUpcomingForUser(ctx, userID, s.now(), upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing upcoming events: %w", err)
	}
	return events, nil
}

// CompleteEvent marks a scheduled event completed. Other states are left alone.
func (s *eventServiceImpl) CompleteEvent(ctx context.Context, eventID uuid.UUID) (bool, error) {
	done, err := s.events.CompleteIfScheduled(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("error completing event: %w", err)
	}
	return done, nil
}
