package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/app/models"
)

// AttendanceRepository handles attendance rows
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Upsert records the status for (event, user), replacing an earlier mark
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) error {
	sql, args, err := psql.Insert("attendances").
		Columns("event_id", "user_id", "status", "marked_by", "marked_at").
		Values(a.EventID, a.UserID, string(a.Status), a.MarkedBy, a.MarkedAt).
		Suffix(`ON CONFLICT (event_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			marked_by = EXCLUDED.marked_by,
			marked_at = EXCLUDED.marked_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert attendance query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error upserting attendance: %w", err)
	}
	return nil
}

// StatusesByEvent returns the recorded status per user
func (r *AttendanceRepository) StatusesByEvent(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]models.AttendanceStatus, error) {
	sql, args, err := psql.Select("user_id", "status").
		From("attendances").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.AttendanceStatus)
	for rows.Next() {
		var userID uuid.UUID
		var status string
		if err := rows.Scan(&userID, &status); err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		out[userID] = models.AttendanceStatus(status)
	}
	return out, rows.Err()
}
