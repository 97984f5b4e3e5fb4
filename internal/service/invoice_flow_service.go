package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/pkg/telegram"
)

// IInvoiceFlowService advances the invoice state machine by one inbound event.
// User-facing failures are answered in the chat and mirrored to the operator
// channel; the returned error is only for the caller's logs.
type IInvoiceFlowService interface {
	HandleInvoicePhoto(ctx context.Context, msg *telegram.Message) error
	// HandleReply reports false when the reply does not belong to a session.
	HandleReply(ctx context.Context, msg *telegram.Message) (bool, error)
	HandleCallback(ctx context.Context, cb dto.CallbackContext) error
}

type invoiceFlowService struct {
	messenger   Messenger
	store       contract.SessionStore
	catalog     ICatalogService
	recognition IRecognitionService
	matching    IMatchingService
	review      IReviewService
	tradePoints ITradePointService
	submission  ISubmissionService
	diagnostics IDiagnosticsService
	logger      logger.ILogger
}

func NewInvoiceFlowService(
	messenger Messenger,
	store contract.SessionStore,
	catalog ICatalogService,
	recognition IRecognitionService,
	matching IMatchingService,
	review IReviewService,
	tradePoints ITradePointService,
	submission ISubmissionService,
	diagnostics IDiagnosticsService,
	log logger.ILogger,
) IInvoiceFlowService {
	return &invoiceFlowService{
		messenger:   messenger,
		store:       store,
		catalog:     catalog,
		recognition: recognition,
		matching:    matching,
		review:      review,
		tradePoints: tradePoints,
		submission:  submission,
		diagnostics: diagnostics,
		logger:      log,
	}
}

func (s *invoiceFlowService) HandleInvoicePhoto(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	s.send(ctx, chatID, constant.MsgRecognizing)

	state, err := s.recognition.Recognize(ctx, msg)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}

	sent, err := s.messenger.SendMessage(ctx, chatID, fmt.Sprintf(constant.MsgRecognized, html.EscapeString(state.Supplier)))
	if err != nil {
		return s.fail(ctx, chatID, apperror.New(apperror.KindInternal, stageRecognition, constant.MsgInternal, err))
	}
	if err := s.store.Create(ctx, entity.SessionKey{ChatID: chatID, MessageID: sent.MessageID}, state); err != nil {
		return s.fail(ctx, chatID, apperror.New(apperror.KindInternal, stageRecognition, constant.MsgInternal, err))
	}

	// a matching failure keeps the recognized checkpoint until TTL
	catalog, err := s.matching.Match(ctx, state)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if err := s.store.Replace(ctx, state); err != nil {
		return s.fail(ctx, chatID, apperror.New(apperror.KindInternal, stageMatching, constant.MsgInternal, err))
	}

	if err := s.review.Present(ctx, state, catalog); err != nil {
		return s.fail(ctx, chatID, err)
	}
	return nil
}

func (s *invoiceFlowService) HandleReply(ctx context.Context, msg *telegram.Message) (bool, error) {
	if msg.ReplyToMessage == nil {
		return false, nil
	}

	key := entity.SessionKey{ChatID: msg.Chat.ID, MessageID: msg.ReplyToMessage.MessageID}
	state, err := s.store.Get(ctx, key)
	if apperror.IsSessionNotFound(err) {
		return false, nil
	}
	if err != nil {
		return true, s.fail(ctx, msg.Chat.ID, apperror.New(apperror.KindSession, stageReview, constant.MsgStaleSession, err))
	}

	// Edits close once the trade-point choice is shown.
	if state.Status != entity.InvoiceStatusMatchingComplete && state.Status != entity.InvoiceStatusAwaitingCorrection {
		return true, s.fail(ctx, msg.Chat.ID, apperror.New(apperror.KindInput, stageReview, constant.MsgEditsClosed,
			fmt.Errorf("reply in status %s: %w", state.Status, apperror.ErrInvalidState)))
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return true, s.fail(ctx, msg.Chat.ID, apperror.New(apperror.KindConfiguration, stageReview, constant.MsgEmptyCatalog, err))
	}

	result, err := s.review.ApplyCorrections(ctx, state, catalog, msg.Text)
	if err != nil {
		return true, s.fail(ctx, msg.Chat.ID, err)
	}
	if result.HasSkipped() {
		s.send(ctx, msg.Chat.ID, RenderSkipped(result))
	}

	if err := s.review.Present(ctx, state, catalog); err != nil {
		return true, s.fail(ctx, msg.Chat.ID, err)
	}
	return true, nil
}

func (s *invoiceFlowService) HandleCallback(ctx context.Context, cb dto.CallbackContext) error {
	state, err := s.store.GetByID(ctx, cb.Data.SessionID)
	if err != nil {
		if apperror.IsSessionNotFound(err) {
			s.send(ctx, cb.ChatID, constant.MsgStaleSession)
			return nil
		}
		return s.fail(ctx, cb.ChatID, apperror.New(apperror.KindSession, "callback", constant.MsgStaleSession, err))
	}

	text := html.EscapeString(cb.MessageText)

	switch cb.Data.Action {
	case dto.ActionEditErrors:
		s.annotate(ctx, cb, text, constant.NoteCorrectionMode)
		if err := s.review.RequestCorrections(ctx, state); err != nil {
			return s.fail(ctx, cb.ChatID, err)
		}

	case dto.ActionConfirmReview:
		s.annotate(ctx, cb, text, constant.NoteReviewed)
		if err := s.tradePoints.PresentSelection(ctx, state, cb.UserID); err != nil {
			return s.fail(ctx, cb.ChatID, err)
		}

	case dto.ActionSelectTradePoint:
		point, err := s.tradePoints.Select(ctx, state, cb.UserID, cb.Data.TradePointKey)
		if err != nil {
			return s.fail(ctx, cb.ChatID, err)
		}
		s.annotate(ctx, cb, text, fmt.Sprintf(constant.NoteSelected, html.EscapeString(pointName(cb.Data.TradePointKey, point))))

	case dto.ActionSubmit:
		if state.Status != entity.InvoiceStatusReadyToSubmit || state.SelectedTradePointKey == "" {
			return s.fail(ctx, cb.ChatID, apperror.New(apperror.KindSession, stageSubmission, constant.MsgStaleSession,
				fmt.Errorf("session %s in status %s: %w", state.SessionID, state.Status, apperror.ErrInvalidState)))
		}
		s.annotate(ctx, cb, text, constant.NoteProcessing)

		sub, err := s.submission.Submit(ctx, state, Origin{ChatID: cb.ChatID, MessageID: cb.MessageID, EscapedText: text})
		if err != nil {
			return s.fail(ctx, cb.ChatID, err)
		}
		s.send(ctx, cb.ChatID, fmt.Sprintf(constant.MsgSubmitted, html.EscapeString(sub.DocumentID)))

	default:
		return fmt.Errorf("unhandled callback action %q", cb.Data.Action)
	}
	return nil
}

func (s *invoiceFlowService) annotate(ctx context.Context, cb dto.CallbackContext, escapedText, note string) {
	if err := annotate(ctx, s.messenger, cb.ChatID, cb.MessageID, escapedText, note); err != nil {
		s.logger.Warn("FLOW", "Failed to annotate pressed message", map[string]interface{}{"error": err.Error()})
	}
}

func (s *invoiceFlowService) send(ctx context.Context, chatID int64, text string) {
	if _, err := s.messenger.SendMessage(ctx, chatID, text); err != nil {
		s.logger.Warn("FLOW", "Failed to send message", map[string]interface{}{"chat_id": chatID, "error": err.Error()})
	}
}

// fail answers the user with the safe message and mirrors the details to
// the operator channel.
func (s *invoiceFlowService) fail(ctx context.Context, chatID int64, err error) error {
	userMessage := constant.MsgInternal
	level := DiagnosticCritical
	stage := "unknown"
	kind := apperror.KindInternal

	var fe *apperror.FlowError
	if errors.As(err, &fe) {
		userMessage = fe.UserMessage
		stage = fe.Stage
		kind = fe.Kind
		switch fe.Kind {
		case apperror.KindInput, apperror.KindPermission, apperror.KindSession:
			level = DiagnosticWarning
		case apperror.KindInternal:
			level = DiagnosticCritical
		default:
			level = DiagnosticError
		}
	}

	s.send(ctx, chatID, userMessage)
	s.diagnostics.Report(ctx, Diagnostic{
		Level:   level,
		Module:  "FLOW",
		Message: fmt.Sprintf("Invoice flow stopped at %s", stage),
		Details: map[string]interface{}{
			"chat_id": chatID,
			"kind":    string(kind),
			"error":   err.Error(),
		},
	})
	return err
}
