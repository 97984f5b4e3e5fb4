package controller

import (
	"context"
	"slices"
	"time"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/handler"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/pkg/serverutils"
	"invoice-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	HandleWebhook(ctx *fiber.Ctx) error
}

type webhookController struct {
	router    handler.IUpdateRouter
	messenger service.Messenger
	lock      *semaphore.Weighted
	lockWait  time.Duration
	logger    logger.ILogger
}

// NewWebhookController serializes every inbound event behind one global
// lock; a request that cannot get it within lockWait is answered "busy".
func NewWebhookController(router handler.IUpdateRouter, messenger service.Messenger, lockWait time.Duration, log logger.ILogger) IWebhookController {
	return &webhookController{
		router:    router,
		messenger: messenger,
		lock:      semaphore.NewWeighted(1),
		lockWait:  lockWait,
		logger:    log,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	handlers := append(slices.Clone(middleware), c.HandleWebhook)
	r.Post("/webhook", handlers...)
}

func (c *webhookController) HandleWebhook(ctx *fiber.Ctx) error {
	var payload dto.WebhookPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}

	reqCtx := ctx.UserContext()

	lockCtx, cancel := context.WithTimeout(reqCtx, c.lockWait)
	defer cancel()
	if err := c.lock.Acquire(lockCtx, 1); err != nil {
		c.logger.Warn("WEBHOOK", "Lock wait timed out", map[string]interface{}{
			"update_id": payload.UpdateID,
			"wait":      c.lockWait.String(),
		})
		c.replyBusy(reqCtx, &payload)
		return ctx.JSON(serverutils.SuccessResponse("busy", nil))
	}
	defer c.lock.Release(1)

	if err := c.router.Route(reqCtx, &payload); err != nil {
		// the user was already answered; the platform must not redeliver
		c.logger.Error("WEBHOOK", "Update handling failed", map[string]interface{}{
			"update_id": payload.UpdateID,
			"error":     err.Error(),
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("ok", nil))
}

func (c *webhookController) replyBusy(ctx context.Context, payload *dto.WebhookPayload) {
	if q := payload.CallbackQuery; q != nil {
		_ = c.messenger.AnswerCallbackQuery(ctx, q.ID, "")
	}

	chatID := payload.ChatID()
	if chatID == 0 {
		return
	}
	if _, err := c.messenger.SendMessage(ctx, chatID, constant.MsgServerBusy); err != nil {
		c.logger.Warn("WEBHOOK", "Failed to send busy reply", map[string]interface{}{"error": err.Error()})
	}
}
