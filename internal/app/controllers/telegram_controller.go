package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models/dto"
)

// WebhookSecretHeader carries the secret configured with setWebhook
const WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes one inbound Telegram update
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// TelegramController receives webhook deliveries from Telegram
type TelegramController struct {
	handler UpdateHandler
	secret  string
	logger  zerolog.Logger
}

// NewTelegramController creates a new TelegramController. An empty secret disables the check.
func NewTelegramController(handler UpdateHandler, secret string, logger zerolog.Logger) *TelegramController {
	return &TelegramController{
		handler: handler,
		secret:  secret,
		logger:  logger,
	}
}

// Webhook handles one update pushed by Telegram
// @Summary Telegram webhook
// @Description Receives updates from the Telegram Bot API. Always answers 200 once the update is accepted so Telegram does not redeliver it.
// @Tags telegram
// @Accept json
// @Produce json
// @Param X-Telegram-Bot-Api-Secret-Token header string false "Webhook secret"
// @Success 200 {object} dto.SuccessResponse "Update accepted"
// @Failure 400 {object} dto.ErrorResponse "Malformed update"
// @Failure 401 {object} dto.ErrorResponse "Secret mismatch"
// @Router /telegram/webhook [post]
func (c *TelegramController) Webhook(ctx *gin.Context) {
	if c.secret != "" {
		got := ctx.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(c.secret)) != 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Invalid webhook secret")
			ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	var update tgbotapi.Update
	if err := ctx.ShouldBindJSON(&update); err != nil {
		c.logger.Warn().Err(err).Msg("Malformed Telegram update")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Malformed update").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	c.handler.HandleUpdate(ctx.Request.Context(), update)
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "ok"})
}
