package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/scheduler"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/delayqueue"
)

// EventLoader loads live events
type EventLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Completer moves a scheduled event to completed, reporting whether it did
type Completer interface {
	CompleteEvent(ctx context.Context, eventID uuid.UUID) (bool, error)
}

// Announcer sends the reminder and completion notices
type Announcer interface {
	SendReminder(ctx context.Context, eventID uuid.UUID) (int, error)
	SendCompleted(ctx context.Context, eventID uuid.UUID) (int, error)
}

// Handlers runs reminder and completion jobs. Both re-read the event first, so a job that
// outlived a cancellation or deletion does nothing.
type Handlers struct {
	events    EventLoader
	completer Completer
	announcer Announcer
	logger    zerolog.Logger
}

// NewHandlers creates the job handlers
func NewHandlers(events EventLoader, completer Completer, announcer Announcer, logger zerolog.Logger) *Handlers {
	return &Handlers{
		events:    events,
		completer: completer,
		announcer: announcer,
		logger:    logger,
	}
}

// Register binds the handlers to their job kinds
func (h *Handlers) Register(w *delayqueue.Worker) {
	w.Handle(scheduler.KindReminder, h.Reminder)
	w.Handle(scheduler.KindCompletion, h.Completion)
}

// scheduledEvent returns the event when it is still live and scheduled, nil otherwise
func (h *Handlers) scheduledEvent(ctx context.Context, job delayqueue.Job) (*models.Event, error) {
	payload, err := scheduler.ParsePayload(job.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}

	event, err := h.events.GetByID(ctx, payload.EventID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.logger.Info().Str("jobKey", job.Key).Msg("Event is gone, skipping job")
			return nil, nil
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event.Status != models.EventStatusScheduled {
		h.logger.Info().
			Str("jobKey", job.Key).
			Str("status", string(event.Status)).
			Msg("Event is not scheduled, skipping job")
		return nil, nil
	}
	return event, nil
}

// Reminder sends the pre-start reminder
func (h *Handlers) Reminder(ctx context.Context, job delayqueue.Job) error {
	event, err := h.scheduledEvent(ctx, job)
	if err != nil || event == nil {
		return err
	}

	sent, err := h.announcer.SendReminder(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	h.logger.Info().Str("eventID", event.ID.String()).Int("sent", sent).Msg("Reminder sent")
	return nil
}

// Completion completes the event and announces it. Only the run that actually flipped the
// status sends the notice.
func (h *Handlers) Completion(ctx context.Context, job delayqueue.Job) error {
	event, err := h.scheduledEvent(ctx, job)
	if err != nil || event == nil {
		return err
	}

	done, err := h.completer.CompleteEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}

	sent, err := h.announcer.SendCompleted(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("send completion notice: %w", err)
	}
	h.logger.Info().Str("eventID", event.ID.String()).Int("sent", sent).Msg("Event completed")
	return nil
}
