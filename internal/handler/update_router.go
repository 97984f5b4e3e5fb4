package handler

import (
	"context"
	"errors"
	"strings"

	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/service"
	"invoice-intake-be/pkg/telegram"
)

type RouterConfig struct {
	BotUsername    string
	CaptionTrigger string
}

// IUpdateRouter dispatches one webhook payload by its shape.
type IUpdateRouter interface {
	Route(ctx context.Context, payload *dto.WebhookPayload) error
}

type updateRouter struct {
	cfg       RouterConfig
	messenger service.Messenger
	flow      service.IInvoiceFlowService
	logger    logger.ILogger
}

func NewUpdateRouter(cfg RouterConfig, messenger service.Messenger, flow service.IInvoiceFlowService, log logger.ILogger) IUpdateRouter {
	cfg.CaptionTrigger = strings.ToLower(strings.TrimSpace(cfg.CaptionTrigger))
	cfg.BotUsername = strings.TrimPrefix(cfg.BotUsername, "@")
	return &updateRouter{
		cfg:       cfg,
		messenger: messenger,
		flow:      flow,
		logger:    log,
	}
}

func (r *updateRouter) Route(ctx context.Context, payload *dto.WebhookPayload) error {
	switch {
	case payload.IsRFIDScan():
		uid := ""
		if payload.Payload != nil {
			uid = payload.Payload.UID
		}
		r.logger.Info("WEBHOOK", "RFID scan acknowledged", map[string]interface{}{"uid": uid})
		return nil
	case payload.CallbackQuery != nil:
		return r.routeCallback(ctx, payload.CallbackQuery)
	case payload.Message != nil:
		return r.routeMessage(ctx, payload.Message)
	}

	r.logger.Debug("WEBHOOK", "Ignoring payload without message or callback", map[string]interface{}{"update_id": payload.UpdateID})
	return nil
}

func (r *updateRouter) routeMessage(ctx context.Context, msg *telegram.Message) error {
	if len(msg.Photo) > 0 && r.isInvoiceCaption(msg.Caption) {
		return r.flow.HandleInvoicePhoto(ctx, msg)
	}

	if r.isReplyToBot(msg) {
		handled, err := r.flow.HandleReply(ctx, msg)
		if !handled && err == nil {
			r.logger.Debug("WEBHOOK", "Reply does not belong to an invoice session", map[string]interface{}{
				"chat_id":    msg.Chat.ID,
				"message_id": msg.ReplyToMessage.MessageID,
			})
		}
		return err
	}

	return nil
}

func (r *updateRouter) routeCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	// stops the client-side spinner; failure here is cosmetic
	if err := r.messenger.AnswerCallbackQuery(ctx, q.ID, ""); err != nil {
		r.logger.Warn("WEBHOOK", "Failed to answer callback query", map[string]interface{}{"error": err.Error()})
	}

	data, err := dto.ParseCallbackData(q.Data)
	if err != nil {
		level := r.logger.Warn
		if errors.Is(err, dto.ErrUnknownCallback) {
			level = r.logger.Debug
		}
		level("WEBHOOK", "Ignoring callback", map[string]interface{}{"data": q.Data, "error": err.Error()})
		return nil
	}

	return r.flow.HandleCallback(ctx, dto.NewCallbackContext(q, data))
}

func (r *updateRouter) isInvoiceCaption(caption string) bool {
	return r.cfg.CaptionTrigger != "" && strings.ToLower(strings.TrimSpace(caption)) == r.cfg.CaptionTrigger
}

// isReplyToBot accepts replies to this bot's messages. Without a configured
// username any bot author is accepted.
func (r *updateRouter) isReplyToBot(msg *telegram.Message) bool {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil || msg.Text == "" {
		return false
	}
	author := msg.ReplyToMessage.From
	if r.cfg.BotUsername == "" {
		return author.IsBot
	}
	return strings.EqualFold(author.Username, r.cfg.BotUsername)
}
