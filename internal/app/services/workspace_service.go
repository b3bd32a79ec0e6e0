package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/validation"
)

// WorkspaceService defines user, workspace and group binding operations
type WorkspaceService interface {
	EnsureUser(ctx context.Context, profile models.TelegramProfile) (*models.User, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]*models.MemberWorkspace, error)
	ActiveWorkspace(ctx context.Context, userID uuid.UUID) (*models.Workspace, models.WorkspaceRole, error)
	CreateWorkspace(ctx context.Context, userID uuid.UUID, title string) (*models.Workspace, error)
	SelectWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) (*models.Workspace, error)
	UpdateWorkspace(ctx context.Context, userID, workspaceID uuid.UUID, title string) (*models.Workspace, error)
	ListMembers(ctx context.Context, userID, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error)
	JoinWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) (*models.Workspace, error)
	BindGroup(ctx context.Context, userID uuid.UUID, chatID int64, chatType, title string) (*models.TelegramGroup, error)
}

// workspaceServiceImpl implements the WorkspaceService interface
type workspaceServiceImpl struct {
	tx         TxRunner
	users      UserStore
	workspaces WorkspaceStore
	groups     GroupStore
	logger     zerolog.Logger
}

// NewWorkspaceService creates a new workspace service instance
func NewWorkspaceService(tx TxRunner, users UserStore, workspaces WorkspaceStore, groups GroupStore, logger zerolog.Logger) WorkspaceService {
	return &workspaceServiceImpl{
		tx:         tx,
		users:      users,
		workspaces: workspaces,
		groups:     groups,
		logger:     logger,
	}
}

func validateWorkspaceTitle(title string) (string, error) {
	title, ok := validation.Title(title, validation.WorkspaceTitleMaxLength)
	if title == "" {
		return "", apperrors.NewValidationError("workspace title is required")
	}
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("workspace title must be at most %d characters", validation.WorkspaceTitleMaxLength))
	}
	return title, nil
}

// roleIn returns the caller's role, ForbiddenError for non-members
func (s *workspaceServiceImpl) roleIn(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error) {
	role, err := s.workspaces.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", apperrors.NewForbiddenError("you are not a member of this workspace")
		}
		return "", fmt.Errorf("error checking membership: %w", err)
	}
	return role, nil
}

// EnsureUser registers a Telegram user or refreshes the stored profile
func (s *workspaceServiceImpl) EnsureUser(ctx context.Context, profile models.TelegramProfile) (*models.User, error) {
	if profile.TelegramID == 0 {
		return nil, apperrors.NewUnauthorizedError("telegram user is required")
	}
	user, err := s.users.UpsertByTelegramID(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("error registering user: %w", err)
	}
	return user, nil
}

// GetMe returns the caller
func (s *workspaceServiceImpl) GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// ListWorkspaces lists the caller's workspaces and flags the active one
func (s *workspaceServiceImpl) ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]*models.MemberWorkspace, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.workspaces.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing workspaces: %w", err)
	}
	for _, ws := range list {
		ws.Active = user.ActiveWorkspaceID != nil && *user.ActiveWorkspaceID == ws.ID
	}
	return list, nil
}

// ActiveWorkspace returns the workspace the caller currently acts in together with the
// caller's role there
func (s *workspaceServiceImpl) ActiveWorkspace(ctx context.Context, userID uuid.UUID) (*models.Workspace, models.WorkspaceRole, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.ActiveWorkspaceID == nil {
		return nil, "", apperrors.NewValidationError("create or choose a workspace first")
	}
	role, err := s.workspaces.GetMemberRole(ctx, *user.ActiveWorkspaceID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", apperrors.NewValidationError("create or choose a workspace first")
		}
		return nil, "", fmt.Errorf("error checking membership: %w", err)
	}
	ws, err := s.workspaces.GetByID(ctx, *user.ActiveWorkspaceID)
	if err != nil {
		return nil, "", fmt.Errorf("error loading workspace: %w", err)
	}
	return ws, role, nil
}

// CreateWorkspace creates a workspace owned by the caller and makes it active
func (s *workspaceServiceImpl) CreateWorkspace(ctx context.Context, userID uuid.UUID, title string) (*models.Workspace, error) {
	title, err := validateWorkspaceTitle(title)
	if err != nil {
		return nil, err
	}

	ws := &models.Workspace{Title: title, OwnerID: userID}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.workspaces.Create(ctx, ws); err != nil {
			return err
		}
		if _, err := s.workspaces.AddMember(ctx, ws.ID, userID, models.WorkspaceRoleOwner); err != nil {
			return err
		}
		return s.users.SetActiveWorkspace(ctx, userID, ws.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating workspace: %w", err)
	}

	s.logger.Info().Str("workspaceID", ws.ID.String()).Str("ownerID", userID.String()).Msg("Workspace created")
	return ws, nil
}

// SelectWorkspace makes a workspace the caller belongs to the active one
func (s *workspaceServiceImpl) SelectWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewResourceNotFoundError("workspace not found")
		}
		return nil, fmt.Errorf("error loading workspace: %w", err)
	}
	if _, err := s.roleIn(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	if err := s.users.SetActiveWorkspace(ctx, userID, workspaceID); err != nil {
		return nil, fmt.Errorf("error selecting workspace: %w", err)
	}
	return ws, nil
}

// UpdateWorkspace renames a workspace. Owners and admins only.
func (s *workspaceServiceImpl) UpdateWorkspace(ctx context.Context, userID, workspaceID uuid.UUID, title string) (*models.Workspace, error) {
	title, err := validateWorkspaceTitle(title)
	if err != nil {
		return nil, err
	}
	role, err := s.roleIn(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanManage() {
		return nil, apperrors.NewForbiddenError("only owners and admins can edit the workspace")
	}

	ws, err := s.workspaces.UpdateTitle(ctx, workspaceID, title)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewResourceNotFoundError("workspace not found")
		}
		return nil, fmt.Errorf("error updating workspace: %w", err)
	}
	return ws, nil
}

// ListMembers lists the members of a workspace the caller belongs to
func (s *workspaceServiceImpl) ListMembers(ctx context.Context, userID, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error) {
	if _, err := s.roleIn(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	members, err := s.workspaces.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	return members, nil
}

// JoinWorkspace adds the caller as a member (keeping a higher existing role) and selects it
func (s *workspaceServiceImpl) JoinWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewResourceNotFoundError("workspace not found")
		}
		return nil, fmt.Errorf("error loading workspace: %w", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		joined, err := s.workspaces.AddMember(ctx, workspaceID, userID, models.WorkspaceRoleMember)
		if err != nil {
			return err
		}
		if joined {
			s.logger.Info().Str("workspaceID", workspaceID.String()).Str("userID", userID.String()).Msg("Member joined workspace")
		}
		return s.users.SetActiveWorkspace(ctx, userID, workspaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("error joining workspace: %w", err)
	}
	return ws, nil
}

// BindGroup makes a group chat the notification target of the caller's active workspace
func (s *workspaceServiceImpl) BindGroup(ctx context.Context, userID uuid.UUID, chatID int64, chatType, title string) (*models.TelegramGroup, error) {
	if !models.IsGroupChatType(chatType) {
		return nil, apperrors.NewValidationError("only groups and supergroups can be bound")
	}
	ws, role, err := s.ActiveWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanManage() {
		return nil, apperrors.NewForbiddenError("only owners and admins can bind a group")
	}

	group := &models.TelegramGroup{
		ChatID:      chatID,
		WorkspaceID: ws.ID,
		ChatType:    chatType,
		Title:       strings.TrimSpace(title),
	}
	if err := s.groups.Upsert(ctx, group); err != nil {
		return nil, fmt.Errorf("error binding group: %w", err)
	}

	s.logger.Info().Int64("chatID", chatID).Str("workspaceID", ws.ID.String()).Msg("Group bound to workspace")
	return group, nil
}
