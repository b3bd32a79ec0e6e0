package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/pkg/delayqueue"
)

// Job kinds, also the key prefixes
const (
	KindReminder   = "remind"
	KindCompletion = "complete"
)

// DefaultReminderLead is how long before the start a reminder fires
const DefaultReminderLead = time.Hour

// Queue is the part of the delay queue the scheduler needs
type Queue interface {
	Enqueue(ctx context.Context, key string, payload []byte, delay time.Duration, opts delayqueue.Options) error
	Remove(ctx context.Context, key string) error
}

// Payload is the body of reminder and completion jobs
type Payload struct {
	EventID uuid.UUID `json:"eventId"`
}

// JobScheduler schedules the two per-event jobs under deterministic keys
type JobScheduler struct {
	queue  Queue
	lead   time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a scheduler. A non-positive lead falls back to DefaultReminderLead.
func New(queue Queue, lead time.Duration, logger zerolog.Logger) *JobScheduler {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	return &JobScheduler{
		queue:  queue,
		lead:   lead,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source
func (s *JobScheduler) WithClock(now func() time.Time) *JobScheduler {
	s.now = now
	return s
}

// ReminderKey is the queue key of an event's reminder
func ReminderKey(eventID uuid.UUID) string {
	return KindReminder + ":" + eventID.String()
}

// CompletionKey is the queue key of an event's completion job
func CompletionKey(eventID uuid.UUID) string {
	return KindCompletion + ":" + eventID.String()
}

// ParsePayload decodes a job body
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	err := json.Unmarshal(raw, &p)
	return p, err
}

// ScheduleReminder enqueues the reminder lead before startAt. Nothing is enqueued once that
// moment has passed.
func (s *JobScheduler) ScheduleReminder(ctx context.Context, eventID uuid.UUID, startAt time.Time) error {
	delay := startAt.Add(-s.lead).Sub(s.now())
	return s.schedule(ctx, ReminderKey(eventID), eventID, delay)
}

// ScheduleCompletion enqueues the completion job at endAt unless it is already past.
func (s *JobScheduler) ScheduleCompletion(ctx context.Context, eventID uuid.UUID, endAt time.Time) error {
	delay := endAt.Sub(s.now())
	return s.schedule(ctx, CompletionKey(eventID), eventID, delay)
}

func (s *JobScheduler) schedule(ctx context.Context, key string, eventID uuid.UUID, delay time.Duration) error {
	if delay <= 0 {
		s.logger.Debug().
			Str("key", key).
			Dur("delay", delay).
			Msg("Job moment already passed, not scheduling")
		return nil
	}

	payload, err := json.Marshal(Payload{EventID: eventID})
	if err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, key, payload, delay, delayqueue.OneShot); err != nil {
		return err
	}

	s.logger.Info().
		Str("key", key).
		Time("runAt", s.now().Add(delay)).
		Msg("Job scheduled")
	return nil
}

// Cancel removes both jobs of an event. Failures are logged and swallowed.
func (s *JobScheduler) Cancel(ctx context.Context, eventID uuid.UUID) {
	for _, key := range []string{ReminderKey(eventID), CompletionKey(eventID)} {
		if err := s.queue.Remove(ctx, key); err != nil {
			s.logger.Warn().
				Err(err).
				Str("key", key).
				Str("eventID", eventID.String()).
				Msg("Failed to remove scheduled job")
		}
	}
}
