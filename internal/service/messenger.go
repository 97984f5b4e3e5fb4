package service

import (
	"context"
	"fmt"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/pkg/telegram"
)

// Messenger is the chat transport the invoice flow talks to.
// *telegram.Client implements it.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

var _ Messenger = (*telegram.Client)(nil)

// emitAndRekey sends a new bot message for the session and moves the reply
// index onto it. Only the newest message accepts replies afterwards.
func emitAndRekey(ctx context.Context, m Messenger, store contract.SessionStore, state *entity.InvoiceState, text string, opts ...telegram.SendOption) error {
	sent, err := m.SendMessage(ctx, state.ChatID, text, opts...)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	newKey := entity.SessionKey{ChatID: state.ChatID, MessageID: sent.MessageID}
	if err := store.Rekey(ctx, state, newKey); err != nil {
		return fmt.Errorf("rekey session %s: %w", state.SessionID, err)
	}
	return nil
}

// annotate appends a note to the text of a message whose button was pressed.
// The incoming text is plain, so it is escaped before re-sending as HTML.
func annotate(ctx context.Context, m Messenger, chatID, messageID int64, escapedText, note string) error {
	if messageID == 0 {
		return nil
	}
	return m.EditMessageText(ctx, chatID, messageID, escapedText+"\n\n"+note)
}
