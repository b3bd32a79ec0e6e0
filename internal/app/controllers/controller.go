package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models/dto"
	"github.com/yigit/huddle/internal/middleware"
)

// callerID returns the authenticated caller, writing 401 when the route was reached without
// RequireUser.
func callerID(ctx *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return uuid.Nil, false
	}
	return userID, true
}
