package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/helpers"
	"github.com/yigit/huddle/internal/pkg/logger"
)

var userColumns = []string{
	"id", "telegram_id", "username", "first_name", "last_name",
	"active_workspace_id", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.ActiveWorkspaceID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpsertByTelegramID creates the user on first contact and refreshes the profile afterwards
func (r *UserRepository) UpsertByTelegramID(ctx context.Context, profile models.TelegramProfile) (*models.User, error) {
	username := helpers.TrimToNil(&profile.Username)
	firstName := helpers.TrimToNil(&profile.FirstName)
	lastName := helpers.TrimToNil(&profile.LastName)

	sql, args, err := psql.Insert("users").
		Columns("telegram_id", "username", "first_name", "last_name").
		Values(profile.TelegramID, username, firstName, lastName).
		Suffix(`ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
			RETURNING ` + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build upsert user query: %w", err)
	}

	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("telegramID", profile.TelegramID).Msg("Error upserting user")
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByTelegramID retrieves a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"telegram_id": telegramID})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// SetActiveWorkspace stores the workspace the user is currently acting in
func (r *UserRepository) SetActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	sql, args, err := psql.Update("users").
		Set("active_workspace_id", workspaceID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set active workspace query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error setting active workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
