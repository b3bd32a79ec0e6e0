package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/models/dto"
	"github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/middleware"
)

// WorkspaceController handles the caller's profile and workspaces
type WorkspaceController struct {
	workspaceService services.WorkspaceService
}

// NewWorkspaceController creates a new WorkspaceController
func NewWorkspaceController(workspaceService services.WorkspaceService) *WorkspaceController {
	return &WorkspaceController{
		workspaceService: workspaceService,
	}
}

// GetMe returns the calling user
// @Summary Get current user
// @Description Returns the calling user and their active workspace id
// @Tags users
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /me [get]
func (c *WorkspaceController) GetMe(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	user, err := c.workspaceService.GetMe(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromUser(user)))
}

// ListWorkspaces lists the caller's workspaces
// @Summary List workspaces
// @Description Lists the workspaces the caller belongs to, with their role and the active flag
// @Tags workspaces
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.WorkspaceResponse} "Workspaces retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /workspaces [get]
func (c *WorkspaceController) ListWorkspaces(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	list, err := c.workspaceService.ListWorkspaces(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromMemberWorkspaces(list)))
}

// CreateWorkspace creates a workspace owned by the caller
// @Summary Create a workspace
// @Description Creates a workspace, makes the caller its owner and selects it
// @Tags workspaces
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param request body dto.CreateWorkspaceRequest true "Workspace information"
// @Success 201 {object} dto.APIResponse{data=dto.WorkspaceResponse} "Workspace created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /workspaces [post]
func (c *WorkspaceController) CreateWorkspace(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	ws, err := c.workspaceService.CreateWorkspace(ctx.Request.Context(), userID, req.Title)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.FromWorkspace(ws)
	resp.Role = string(models.WorkspaceRoleOwner)
	resp.Active = true
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// SelectWorkspace makes a workspace the caller's active one
// @Summary Select active workspace
// @Description Makes the workspace active for the caller. Members only.
// @Tags workspaces
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=dto.WorkspaceResponse} "Workspace selected"
// @Failure 400 {object} dto.ErrorResponse "Invalid workspace ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not a member"
// @Failure 404 {object} dto.ErrorResponse "Workspace not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /workspaces/{id}/select [post]
func (c *WorkspaceController) SelectWorkspace(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	workspaceID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	ws, err := c.workspaceService.SelectWorkspace(ctx.Request.Context(), userID, workspaceID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.FromWorkspace(ws)
	resp.Active = true
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpdateWorkspace renames a workspace
// @Summary Update a workspace
// @Description Renames the workspace. Owners and admins only.
// @Tags workspaces
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body dto.UpdateWorkspaceRequest true "New title"
// @Success 200 {object} dto.APIResponse{data=dto.WorkspaceResponse} "Workspace updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller cannot manage the workspace"
// @Failure 404 {object} dto.ErrorResponse "Workspace not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /workspaces/{id} [patch]
func (c *WorkspaceController) UpdateWorkspace(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	workspaceID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateWorkspaceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	ws, err := c.workspaceService.UpdateWorkspace(ctx.Request.Context(), userID, workspaceID, req.Title)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromWorkspace(ws)))
}

// ListMembers lists the members of a workspace
// @Summary List workspace members
// @Description Lists members with their roles. Members only.
// @Tags workspaces
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.WorkspaceMemberResponse} "Members retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid workspace ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not a member"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /workspaces/{id}/members [get]
func (c *WorkspaceController) ListMembers(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	workspaceID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	members, err := c.workspaceService.ListMembers(ctx.Request.Context(), userID, workspaceID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromWorkspaceMembers(members)))
}
