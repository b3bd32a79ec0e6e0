package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/logger"
)

var workspaceColumns = []string{"id", "title", "owner_id", "created_at", "updated_at"}

// WorkspaceRepository handles workspaces and their memberships
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// Create inserts the workspace and fills its generated fields
func (r *WorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) error {
	sql, args, err := psql.Insert("workspaces").
		Columns("title", "owner_id").
		Values(ws.Title, ws.OwnerID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create workspace query: %w", err)
	}

	if err := conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create workspace query")
		return fmt.Errorf("error creating workspace: %w", err)
	}
	return nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	sql, args, err := psql.Select(workspaceColumns...).
		From("workspaces").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get workspace query: %w", err)
	}

	ws := &models.Workspace{}
	err = conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&ws.ID, &ws.Title, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting workspace: %w", err)
	}
	return ws, nil
}

// UpdateTitle renames a workspace
func (r *WorkspaceRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*models.Workspace, error) {
	sql, args, err := psql.Update("workspaces").
		Set("title", title).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(workspaceColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update workspace query: %w", err)
	}

	ws := &models.Workspace{}
	err = conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&ws.ID, &ws.Title, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating workspace: %w", err)
	}
	return ws, nil
}

// AddMember inserts a membership, keeping an existing one untouched.
// It reports whether a row was inserted.
func (r *WorkspaceRepository) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) (bool, error) {
	sql, args, err := psql.Insert("workspace_members").
		Columns("workspace_id", "user_id", "role").
		Values(workspaceID, userID, string(role)).
		Suffix("ON CONFLICT (workspace_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build add member query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error adding workspace member: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetMemberRole returns the user's role in the workspace or ErrNotFound for non-members
func (r *WorkspaceRepository) GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error) {
	sql, args, err := psql.Select("role").
		From("workspace_members").
		Where(squirrel.Eq{"workspace_id": workspaceID, "user_id": userID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build get member role query: %w", err)
	}

	var role string
	if err := conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&role); err != nil {
		if isNoRows(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error getting member role: %w", err)
	}
	return models.WorkspaceRole(role), nil
}

// FilterMembers returns the subset of userIDs that belong to the workspace
func (r *WorkspaceRepository) FilterMembers(ctx context.Context, workspaceID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	sql, args, err := psql.Select("user_id").
		From("workspace_members").
		Where(squirrel.Eq{"workspace_id": workspaceID, "user_id": userIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter members query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error filtering members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning member id: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// ListMembers returns memberships with their users, oldest first
func (r *WorkspaceRepository) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error) {
	cols := append([]string{"m.workspace_id", "m.user_id", "m.role", "m.joined_at"}, prefixed("u", userColumns)...)
	sql, args, err := psql.Select(cols...).
		From("workspace_members m").
		Join("users u ON u.id = m.user_id").
		Where(squirrel.Eq{"m.workspace_id": workspaceID}).
		OrderBy("m.joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list members query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	defer rows.Close()

	members := []*models.WorkspaceMember{}
	for rows.Next() {
		m := &models.WorkspaceMember{User: &models.User{}}
		var role string
		u := m.User
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &role, &m.JoinedAt,
			&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
			&u.ActiveWorkspaceID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		m.Role = models.WorkspaceRole(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

// ListForUser returns the workspaces the user belongs to with the user's role
func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.MemberWorkspace, error) {
	cols := append(prefixed("w", workspaceColumns), "m.role")
	sql, args, err := psql.Select(cols...).
		From("workspaces w").
		Join("workspace_members m ON m.workspace_id = w.id").
		Where(squirrel.Eq{"m.user_id": userID}).
		OrderBy("w.title ASC", "w.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list workspaces query: %w", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing workspaces: %w", err)
	}
	defer rows.Close()

	out := []*models.MemberWorkspace{}
	for rows.Next() {
		mw := &models.MemberWorkspace{}
		var role string
		if err := rows.Scan(&mw.ID, &mw.Title, &mw.OwnerID, &mw.CreatedAt, &mw.UpdatedAt, &role); err != nil {
			return nil, fmt.Errorf("error scanning workspace row: %w", err)
		}
		mw.Role = models.WorkspaceRole(role)
		out = append(out, mw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspace rows: %w", err)
	}
	return out, nil
}
