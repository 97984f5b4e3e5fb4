package dto

import "invoice-intake-be/pkg/telegram"

const (
	RFIDSource    = "rfid_reader"
	RFIDEventScan = "scan"
)

// WebhookPayload is any body posted to the webhook: a Telegram update or a
// hardware scan event. Dispatch is by shape.
type WebhookPayload struct {
	telegram.Update

	Source    string       `json:"source,omitempty"`
	EventType string       `json:"eventType,omitempty"`
	Payload   *RFIDPayload `json:"payload,omitempty"`
}

type RFIDPayload struct {
	UID string `json:"uid"`
}

func (p *WebhookPayload) IsRFIDScan() bool {
	return p.Source == RFIDSource && p.EventType == RFIDEventScan
}

// ChatID returns the chat an update belongs to, or 0.
func (p *WebhookPayload) ChatID() int64 {
	switch {
	case p.Message != nil:
		return p.Message.Chat.ID
	case p.CallbackQuery != nil && p.CallbackQuery.Message != nil:
		return p.CallbackQuery.Message.Chat.ID
	}
	return 0
}
