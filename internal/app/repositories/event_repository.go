package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/dberrors"
	"github.com/yigit/huddle/internal/pkg/logger"
)

var eventColumns = []string{
	"id", "workspace_id", "parent_event_id", "type", "title", "description", "location",
	"start_at", "end_at", "status", "created_by", "created_at", "updated_at", "deleted_at",
}

// ErrEventTimeRange is returned when the store rejects end_at <= start_at
var ErrEventTimeRange = apperrors.NewValidationError("event must end after it starts")

// EventRepository handles event database operations. Soft-deleted events are invisible to
// every read.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	var eventType, status string
	err := row.Scan(&e.ID, &e.WorkspaceID, &e.ParentEventID, &eventType, &e.Title, &e.Description,
		&e.Location, &e.StartAt, &e.EndAt, &status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	e.Type = models.EventType(eventType)
	e.Status = models.EventStatus(status)
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]*models.Event, error) {
	defer rows.Close()
	events := []*models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// Create inserts the event and fills its generated fields
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	sql, args, err := psql.Insert("events").
		Columns("workspace_id", "parent_event_id", "type", "title", "description", "location",
			"start_at", "end_at", "status", "created_by").
		Values(e.WorkspaceID, e.ParentEventID, string(e.Type), e.Title, e.Description, e.Location,
			e.StartAt, e.EndAt, string(e.Status), e.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}

	if err := conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if dberrors.IsCheckViolation(err, "events_time_range_check") {
			return ErrEventTimeRange
		}
		logger.Error().Err(err).Str("title", e.Title).Msg("Error executing create event query")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// GetByID retrieves a live event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves a live event and locks its row until the surrounding transaction ends
func (r *EventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.get(ctx, id, true)
}

func (r *EventRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*models.Event, error) {
	q := psql.Select(eventColumns...).
		From("events").
		Where(squirrel.Eq{"id": id, "deleted_at": nil})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	e, err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Str("eventID", id.String()).Msg("Error scanning event row")
		return nil, fmt.Errorf("error getting event by ID: %w", err)
	}
	return e, nil
}

// UpdateStatus sets the lifecycle status of a live event
func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error {
	sql, args, err := psql.Update("events").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update event status query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIfScheduled moves a scheduled event to completed and reports whether it did
func (r *EventRepository) CompleteIfScheduled(ctx context.Context, id uuid.UUID) (bool, error) {
	sql, args, err := psql.Update("events").
		Set("status", string(models.EventStatusCompleted)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil, "status": string(models.EventStatusScheduled)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build complete event query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error completing event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update writes the editable fields of an event
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	sql, args, err := psql.Update("events").
		SetMap(map[string]interface{}{
			"title":       e.Title,
			"description": e.Description,
			"location":    e.Location,
			"start_at":    e.StartAt,
			"end_at":      e.EndAt,
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": e.ID, "deleted_at": nil}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update event query: %w", err)
	}

	if err := conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&e.UpdatedAt); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		if dberrors.IsCheckViolation(err, "events_time_range_check") {
			return ErrEventTimeRange
		}
		return fmt.Errorf("error updating event: %w", err)
	}
	return nil
}

// SoftDelete marks the event deleted
func (r *EventRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	sql, args, err := psql.Update("events").
		Set("deleted_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete event query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUpcomingForUser returns live, non-cancelled events the user takes part in that have
// not ended yet, soonest first
func (r *EventRepository) ListUpcomingForUser(ctx context.Context, userID uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error) {
	sql, args, err := psql.Select(prefixed("e", eventColumns)...).
		From("events e").
		Join("event_participants p ON p.event_id = e.id").
		Where(squirrel.Eq{"p.user_id": userID, "e.deleted_at": nil}).
		Where(squirrel.NotEq{"e.status": string(models.EventStatusCancelled)}).
		Where(squirrel.Gt{"e.end_at": now}).
		OrderBy("e.start_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list upcoming events query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing upcoming events: %w", err)
	}
	return collectEvents(rows)
}

// ListStarted returns live, non-cancelled events of a workspace that started at or before now,
// most recent first. A non-nil organizerID restricts the list to events it organizes.
func (r *EventRepository) ListStarted(ctx context.Context, workspaceID uuid.UUID, organizerID *uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error) {
	q := psql.Select(prefixed("e", eventColumns)...).
		From("events e").
		Where(squirrel.Eq{"e.workspace_id": workspaceID, "e.deleted_at": nil}).
		Where(squirrel.NotEq{"e.status": string(models.EventStatusCancelled)}).
		Where(squirrel.LtOrEq{"e.start_at": now})
	if organizerID != nil {
		q = q.Join("event_participants p ON p.event_id = e.id").
			Where(squirrel.Eq{"p.user_id": *organizerID, "p.role": string(models.ParticipantRoleOrganizer)})
	}
	sql, args, err := q.OrderBy("e.start_at DESC").Limit(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list started events query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing started events: %w", err)
	}
	return collectEvents(rows)
}
