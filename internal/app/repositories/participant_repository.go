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
	"github.com/yigit/huddle/internal/pkg/logger"
)

var participantColumns = []string{"event_id", "user_id", "role", "response_status", "invited_at", "responded_at"}

// ParticipantRepository handles event participant rows
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// Add inserts a single participant row
func (r *ParticipantRepository) Add(ctx context.Context, p *models.Participant) error {
	sql, args, err := psql.Insert("event_participants").
		Columns("event_id", "user_id", "role", "response_status", "invited_at", "responded_at").
		Values(p.EventID, p.UserID, string(p.Role), string(p.Status), p.InvitedAt, p.RespondedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add participant query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("eventID", p.EventID.String()).Msg("Error adding participant")
		return fmt.Errorf("error adding participant: %w", err)
	}
	return nil
}

// AddInvited inserts invited rows for the users that are not participants yet and returns
// the ids that were actually inserted
func (r *ParticipantRepository) AddInvited(ctx context.Context, eventID uuid.UUID, userIDs []uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	q := psql.Insert("event_participants").
		Columns("event_id", "user_id", "role", "response_status", "invited_at")
	for _, id := range userIDs {
		q = q.Values(eventID, id, string(models.ParticipantRoleParticipant), string(models.ResponseInvited), at)
	}
	sql, args, err := q.Suffix("ON CONFLICT (event_id, user_id) DO NOTHING RETURNING user_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build invite query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error inviting participants: %w", err)
	}
	defer rows.Close()

	var inserted []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning invited id: %w", err)
		}
		inserted = append(inserted, id)
	}
	return inserted, rows.Err()
}

// Get returns the participant row of a user in an event
func (r *ParticipantRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Participant, error) {
	sql, args, err := psql.Select(participantColumns...).
		From("event_participants").
		Where(squirrel.Eq{"event_id": eventID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get participant query: %w", err)
	}

	p := &models.Participant{}
	var role, status string
	err = conn(ctx, r.pool).QueryRow(ctx, sql, args...).
		Scan(&p.EventID, &p.UserID, &role, &status, &p.InvitedAt, &p.RespondedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting participant: %w", err)
	}
	p.Role = models.ParticipantRole(role)
	p.Status = models.ResponseStatus(status)
	return p, nil
}

// UpdateResponse overwrites the participant's answer and response time
func (r *ParticipantRepository) UpdateResponse(ctx context.Context, eventID, userID uuid.UUID, status models.ResponseStatus, at time.Time) error {
	sql, args, err := psql.Update("event_participants").
		Set("response_status", string(status)).
		Set("responded_at", at).
		Where(squirrel.Eq{"event_id": eventID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update response query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEvent returns participants with their users, organizer first then by invitation time
func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Participant, error) {
	cols := append(prefixed("p", participantColumns), prefixed("u", userColumns)...)
	sql, args, err := psql.Select(cols...).
		From("event_participants p").
		Join("users u ON u.id = p.user_id").
		Where(squirrel.Eq{"p.event_id": eventID}).
		OrderBy("p.role ASC", "p.invited_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list participants query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	return collectParticipants(rows)
}

func collectParticipants(rows pgx.Rows) ([]*models.Participant, error) {
	defer rows.Close()
	out := []*models.Participant{}
	for rows.Next() {
		p := &models.Participant{User: &models.User{}}
		u := p.User
		var role, status string
		if err := rows.Scan(&p.EventID, &p.UserID, &role, &status, &p.InvitedAt, &p.RespondedAt,
			&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
			&u.ActiveWorkspaceID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning participant row: %w", err)
		}
		p.Role = models.ParticipantRole(role)
		p.Status = models.ResponseStatus(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return out, nil
}
