package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/db"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

// ErrNotFound is returned by every repository when a row does not exist
var ErrNotFound = apperrors.ErrResourceNotFound

// psql is the statement builder shared by all repositories
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository          *UserRepository
	WorkspaceRepository     *WorkspaceRepository
	EventRepository         *EventRepository
	ParticipantRepository   *ParticipantRepository
	AttendanceRepository    *AttendanceRepository
	TelegramGroupRepository *TelegramGroupRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:          NewUserRepository(pool),
		WorkspaceRepository:     NewWorkspaceRepository(pool),
		EventRepository:         NewEventRepository(pool),
		ParticipantRepository:   NewParticipantRepository(pool),
		AttendanceRepository:    NewAttendanceRepository(pool),
		TelegramGroupRepository: NewTelegramGroupRepository(pool),
	}
}

// conn picks the transaction carried by ctx, falling back to the pool
func conn(ctx context.Context, pool *pgxpool.Pool) db.Querier {
	return db.Conn(ctx, pool)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// prefixed qualifies columns with a table alias
func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}
