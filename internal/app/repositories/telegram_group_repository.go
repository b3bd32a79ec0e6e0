package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/huddle/internal/app/models"
)

var telegramGroupColumns = []string{"id", "chat_id", "workspace_id", "chat_type", "title", "created_at"}

// TelegramGroupRepository handles group chats bound to workspaces
type TelegramGroupRepository struct {
	pool *pgxpool.Pool
}

// NewTelegramGroupRepository creates a new TelegramGroupRepository
func NewTelegramGroupRepository(pool *pgxpool.Pool) *TelegramGroupRepository {
	return &TelegramGroupRepository{pool: pool}
}

// Upsert binds a chat to a workspace. Rebinding a chat moves it to the new workspace.
func (r *TelegramGroupRepository) Upsert(ctx context.Context, g *models.TelegramGroup) error {
	sql, args, err := psql.Insert("telegram_groups").
		Columns("chat_id", "workspace_id", "chat_type", "title").
		Values(g.ChatID, g.WorkspaceID, g.ChatType, g.Title).
		Suffix(`ON CONFLICT (chat_id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			chat_type = EXCLUDED.chat_type,
			title = EXCLUDED.title
			RETURNING id, created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert group query: %w", err)
	}

	if err := conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&g.ID, &g.CreatedAt); err != nil {
		return fmt.Errorf("error binding group: %w", err)
	}
	return nil
}

// FirstForWorkspace returns the earliest bound group or supergroup of a workspace
func (r *TelegramGroupRepository) FirstForWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.TelegramGroup, error) {
	sql, args, err := psql.Select(telegramGroupColumns...).
		From("telegram_groups").
		Where(squirrel.Eq{"workspace_id": workspaceID, "chat_type": []string{"group", "supergroup"}}).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get group query: %w", err)
	}

	g := &models.TelegramGroup{}
	err = conn(ctx, r.pool).QueryRow(ctx, sql, args...).
		Scan(&g.ID, &g.ChatID, &g.WorkspaceID, &g.ChatType, &g.Title, &g.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting bound group: %w", err)
	}
	return g, nil
}
