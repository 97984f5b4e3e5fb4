package service

import (
	"context"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/pkg/events"
	pktNats "invoice-intake-be/pkg/nats"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

type IEventService interface {
	SubmissionFinished(ctx context.Context, submission *entity.Submission)
	// WatchFailures escalates failed submissions to the operator channel.
	WatchFailures(ctx context.Context) error
}

type eventService struct {
	publisher   EventPublisher
	subscriber  EventSubscriber
	diagnostics IDiagnosticsService
	logger      logger.ILogger
}

// NewEventService accepts nil publisher/subscriber; events are then skipped.
func NewEventService(publisher EventPublisher, subscriber EventSubscriber, diagnostics IDiagnosticsService, log logger.ILogger) IEventService {
	return &eventService{
		publisher:   publisher,
		subscriber:  subscriber,
		diagnostics: diagnostics,
		logger:      log,
	}
}

func (s *eventService) SubmissionFinished(ctx context.Context, submission *entity.Submission) {
	if s.publisher == nil {
		return
	}

	var event events.BaseEvent
	if submission.Succeeded() {
		event = events.NewEvent(constant.EventInvoiceSubmitted, map[string]interface{}{
			"form_id":     submission.FormID,
			"draft_id":    submission.DraftID,
			"document_id": submission.DocumentID,
			"trade_point": submission.TradePointKey,
			"supplier":    submission.Supplier,
			"total":       submission.Total,
		})
	} else {
		event = events.NewEvent(constant.EventInvoiceSubmissionFailed, map[string]interface{}{
			"form_id":  submission.FormID,
			"stage":    string(submission.Stage),
			"draft_id": submission.DraftID,
			"error":    submission.ErrorMessage,
		})
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("EVENTS", "Failed to publish submission event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *eventService) WatchFailures(ctx context.Context) error {
	if s.subscriber == nil {
		return nil
	}
	if err := s.subscriber.Subscribe(ctx, constant.EventInvoiceSubmissionFailed, "invoice-failure-escalation", s.handleFailure); err != nil {
		return err
	}
	s.logger.Info("EVENTS", "Watching failed submissions", nil)
	return nil
}

func (s *eventService) handleFailure(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	details := map[string]interface{}{"occurred_at": event.Timestamp()}
	for k, v := range payload {
		details[k] = v
	}

	// A draft id means the accounting service holds a draft nobody will finish.
	level := DiagnosticError
	if draftID, _ := payload["draft_id"].(string); draftID != "" {
		level = DiagnosticCritical
	}

	s.diagnostics.Report(ctx, Diagnostic{
		Level:   level,
		Module:  "EVENTS",
		Message: "Invoice submission failed",
		Details: details,
	})
	return nil
}
