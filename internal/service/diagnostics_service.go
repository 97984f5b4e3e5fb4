package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/pkg/mailer"
	"invoice-intake-be/pkg/telegram"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type DiagnosticLevel string

const (
	DiagnosticInfo     DiagnosticLevel = "info"
	DiagnosticWarning  DiagnosticLevel = "warning"
	DiagnosticError    DiagnosticLevel = "error"
	DiagnosticCritical DiagnosticLevel = "critical"
)

// Diagnostic is an operator-facing report. It may carry internal details
// that must never reach the user chat.
type Diagnostic struct {
	Level      DiagnosticLevel        `json:"level"`
	Module     string                 `json:"module"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type IDiagnosticsService interface {
	Report(ctx context.Context, d Diagnostic)
	Consume(ctx context.Context) error
}

type diagnosticsService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	messenger   Messenger
	debugChatID int64
	mailer      mailer.IEmailService
	logger      logger.ILogger
}

func NewDiagnosticsService(
	pubSub *gochannel.GoChannel,
	messenger Messenger,
	debugChatID int64,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IDiagnosticsService {
	return &diagnosticsService{
		pubSub:      pubSub,
		topicName:   constant.DiagnosticsTopic,
		messenger:   messenger,
		debugChatID: debugChatID,
		mailer:      emailService,
		logger:      log,
	}
}

// Report logs the diagnostic and queues it for the operator channel.
func (s *diagnosticsService) Report(ctx context.Context, d Diagnostic) {
	if d.OccurredAt.IsZero() {
		d.OccurredAt = time.Now()
	}
	s.log(d)

	payload, err := json.Marshal(d)
	if err != nil {
		s.logger.Error("DIAGNOSTICS", "Failed to encode diagnostic", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.pubSub.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Error("DIAGNOSTICS", "Failed to publish diagnostic", map[string]interface{}{"error": err.Error()})
	}
}

func (s *diagnosticsService) log(d Diagnostic) {
	details := map[string]interface{}{"source": d.Module}
	for k, v := range d.Details {
		details[k] = v
	}

	switch d.Level {
	case DiagnosticInfo:
		s.logger.Info("DIAGNOSTICS", d.Message, details)
	case DiagnosticWarning:
		s.logger.Warn("DIAGNOSTICS", d.Message, details)
	default:
		s.logger.Error("DIAGNOSTICS", d.Message, details)
	}
}

func (s *diagnosticsService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *diagnosticsService) processMessage(ctx context.Context, msg *message.Message) {
	var d Diagnostic
	if err := json.Unmarshal(msg.Payload, &d); err != nil {
		s.logger.Error("DIAGNOSTICS", "Failed to unmarshal diagnostic", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never redeliver garbage
		return
	}

	if s.debugChatID != 0 {
		if _, err := s.messenger.SendMessage(ctx, s.debugChatID, formatDiagnostic(d), telegram.WithPlainText()); err != nil {
			s.logger.Warn("DIAGNOSTICS", "Failed to forward diagnostic to debug chat", map[string]interface{}{"error": err.Error()})
		}
	}

	if d.Level == DiagnosticCritical && s.mailer.Enabled() {
		subject := fmt.Sprintf("[invoice-bot] %s: %s", d.Module, d.Message)
		if err := s.mailer.SendOperatorAlert(subject, d.Message, d.Details); err != nil {
			s.logger.Warn("DIAGNOSTICS", "Failed to e-mail critical diagnostic", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}

func formatDiagnostic(d Diagnostic) string {
	icon := "ℹ️"
	switch d.Level {
	case DiagnosticWarning:
		icon = "⚠️"
	case DiagnosticError:
		icon = "🔥"
	case DiagnosticCritical:
		icon = "🚨"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", icon, d.Module, d.Message)

	keys := make([]string, 0, len(d.Details))
	for k := range d.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, d.Details[k])
	}
	return b.String()
}
