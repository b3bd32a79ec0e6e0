package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/huddle/internal/app/controllers"
	"github.com/yigit/huddle/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	eventController *controllers.EventController,
	workspaceController *controllers.WorkspaceController,
	telegramController *controllers.TelegramController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Telegram pushes updates here; it authenticates with the webhook secret, not a user
	if telegramController != nil {
		v1.POST("/telegram/webhook", telegramController.Webhook)
	}

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.RequireUser())

	authenticated.GET("/me", workspaceController.GetMe)

	workspaces := authenticated.Group("/workspaces")
	{
		workspaces.GET("", workspaceController.ListWorkspaces)
		workspaces.POST("", workspaceController.CreateWorkspace)
		workspaces.PATCH("/:id", workspaceController.UpdateWorkspace)
		workspaces.POST("/:id/select", workspaceController.SelectWorkspace)
		workspaces.GET("/:id/members", workspaceController.ListMembers)
	}

	events := authenticated.Group("/events")
	{
		events.GET("", eventController.ListUpcomingEvents)
		events.POST("", eventController.CreateEvent)
		events.GET("/:id", eventController.GetEvent)
		events.PATCH("/:id", eventController.UpdateEvent)
		events.DELETE("/:id", eventController.DeleteEvent)
		events.POST("/:id/invite", eventController.InviteParticipants)
		events.POST("/:id/respond", eventController.RespondToEvent)
		events.POST("/:id/cancel", eventController.CancelEvent)
	}
}
