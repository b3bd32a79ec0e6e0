package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/models/dto"
	"github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/middleware"
	"github.com/yigit/huddle/internal/pkg/helpers"
)

// EventController handles event-related operations
type EventController struct {
	eventService services.EventService
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService) *EventController {
	return &EventController{
		eventService: eventService,
	}
}

func badRequest(ctx *gin.Context, field, message string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithField(field)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// parseOptionalInstant parses an optional RFC3339 field. ok is false when a value was given
// but could not be parsed.
func parseOptionalInstant(value *string) (t *time.Time, ok bool) {
	if value == nil {
		return nil, true
	}
	parsed, valid := helpers.ParseInstant(*value)
	if !valid {
		return nil, false
	}
	return &parsed, true
}

// CreateEvent handles event creation
// @Summary Create a new event
// @Description Creates a draft event in a workspace. The caller becomes its confirmed organizer.
// @Tags events
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event information"
// @Success 201 {object} dto.APIResponse{data=dto.EventResponse} "Event created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not a workspace member"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		badRequest(ctx, "workspaceId", "workspaceId must be a valid UUID")
		return
	}

	startAt, endAt := services.ParseTimeRange(req.StartAt, req.EndAt)
	input := services.CreateEventInput{
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartAt:     startAt,
		EndAt:       endAt,
	}
	if req.ParentEventID != nil {
		parentID, err := uuid.Parse(*req.ParentEventID)
		if err != nil {
			badRequest(ctx, "parentEventId", "parentEventId must be a valid UUID")
			return
		}
		input.ParentEventID = &parentID
	}

	event, err := c.eventService.CreateEvent(ctx.Request.Context(), userID, input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.FromEvent(event)))
}

// ListUpcomingEvents lists the caller's upcoming events
// @Summary List upcoming events
// @Description Lists events the caller participates in that have not ended and are not cancelled
// @Tags events
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.EventResponse} "Events retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [get]
func (c *EventController) ListUpcomingEvents(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	events, err := c.eventService.ListUpcoming(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromEvents(events)))
}

// GetEvent retrieves an event with its participants
// @Summary Get event by ID
// @Description Retrieves an event and its participants. Only participants may read it.
// @Tags events
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventDetailsResponse} "Event retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid event ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	details, err := c.eventService.GetEventDetails(ctx.Request.Context(), userID, eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromEventDetails(details)))
}

// UpdateEvent edits an event
// @Summary Update an event
// @Description Changes title, description, location or times. Organizer only. Changing the times of a scheduled event reschedules its jobs.
// @Tags events
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse} "Event updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id} [patch]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	startAt, ok := parseOptionalInstant(req.StartAt)
	if !ok {
		badRequest(ctx, "startAt", "startAt must be a valid timestamp")
		return
	}
	endAt, ok := parseOptionalInstant(req.EndAt)
	if !ok {
		badRequest(ctx, "endAt", "endAt must be a valid timestamp")
		return
	}

	event, err := c.eventService.UpdateEvent(ctx.Request.Context(), userID, eventID, services.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartAt:     startAt,
		EndAt:       endAt,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromEvent(event)))
}

// DeleteEvent soft-deletes an event
// @Summary Delete an event
// @Description Soft-deletes an event and removes its pending jobs. Organizer only.
// @Tags events
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Event deleted successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid event ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.eventService.DeleteEvent(ctx.Request.Context(), userID, eventID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Event deleted successfully"}))
}

// InviteParticipants invites users to a draft event
// @Summary Invite participants
// @Description Invites the listed workspace members, or every member when all is true. Moves the event to scheduled. Organizer only.
// @Tags events
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.InviteRequest true "Users to invite, or all"
// @Success 200 {object} dto.APIResponse{data=dto.InviteResponse} "Participants invited"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or event is not a draft"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id}/invite [post]
func (c *EventController) InviteParticipants(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.InviteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	switch {
	case req.All && len(req.ParticipantIDs) > 0:
		badRequest(ctx, "participantIds", "participantIds cannot be combined with all")
		return
	case !req.All && len(req.ParticipantIDs) == 0:
		badRequest(ctx, "participantIds", "participantIds must not be empty")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(ctx, "participantIds", "participantIds must contain valid UUIDs")
			return
		}
		ids = append(ids, id)
	}

	var (
		result *models.InviteResult
		err    error
	)
	if req.All {
		result, err = c.eventService.InviteWorkspace(ctx.Request.Context(), userID, eventID)
	} else {
		result, err = c.eventService.InviteParticipants(ctx.Request.Context(), userID, eventID, ids)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromInviteResult(result)))
}

// RespondToEvent records the caller's RSVP
// @Summary Respond to an event
// @Description Records the caller's answer. Rejected once the event has started.
// @Tags events
// @Accept json
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.RespondRequest true "Answer"
// @Success 200 {object} dto.APIResponse{data=dto.ParticipantResponse} "Response recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid status, event started or event closed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller was not invited"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id}/respond [post]
func (c *EventController) RespondToEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.RespondRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	participant, err := c.eventService.RespondToEvent(ctx.Request.Context(), userID, eventID, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromParticipant(participant)))
}

// CancelEvent cancels a draft or scheduled event
// @Summary Cancel an event
// @Description Cancels the event, removes its jobs and notifies participants. Organizer only.
// @Tags events
// @Produce json
// @Security UserID
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse} "Event cancelled"
// @Failure 400 {object} dto.ErrorResponse "Event can no longer be cancelled"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Missing or unknown caller"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events/{id}/cancel [post]
func (c *EventController) CancelEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}
	eventID, ok := middleware.UUIDParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.CancelEvent(ctx.Request.Context(), userID, eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromEvent(event)))
}
