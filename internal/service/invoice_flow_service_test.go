package service

import (
	"context"
	"testing"
	"time"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/memory"
	"invoice-intake-be/pkg/skyservice"
	"invoice-intake-be/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowFixture struct {
	flow        IInvoiceFlowService
	messenger   *fakeMessenger
	llm         *fakeLLM
	catalog     *fakeCatalog
	accounting  *fakeAccounting
	store       *memory.SessionRepository
	diagnostics *fakeDiagnostics
}

func newFlowFixture() *flowFixture {
	log := logger.NewNopLogger()
	f := &flowFixture{
		messenger:   newFakeMessenger(),
		llm:         &fakeLLM{},
		catalog:     coffeeCatalog(),
		accounting:  &fakeAccounting{},
		store:       memory.NewSessionRepository(time.Hour),
		diagnostics: &fakeDiagnostics{},
	}
	f.catalog.access[7] = &entity.UserAccess{TelegramUserID: 7, TradePoints: []string{"main"}, WorkerID: 12}

	points := testTradePoints()
	f.flow = NewInvoiceFlowService(
		f.messenger,
		f.store,
		f.catalog,
		NewRecognitionService(f.messenger, f.llm, RecognitionOptions{}, log),
		NewMatchingService(f.catalog, f.llm, log),
		NewReviewService(f.messenger, f.store, f.catalog, log),
		NewTradePointService(f.messenger, f.store, f.catalog, points, log),
		NewSubmissionService(f.accounting, f.store, points, f.catalog, nil, &fakeEvents{}, f.diagnostics, f.messenger, log),
		f.diagnostics,
		log,
	)
	return f
}

func (f *flowFixture) press(t *testing.T, msg sentMessage, row, col int) error {
	t.Helper()
	require.NotNil(t, msg.Keyboard)
	data, err := dto.ParseCallbackData(msg.Keyboard.InlineKeyboard[row][col].CallbackData)
	require.NoError(t, err)
	return f.flow.HandleCallback(context.Background(), dto.CallbackContext{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		UserID:      7,
		MessageText: msg.Text,
		Data:        data,
	})
}

func TestInvoiceFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture()
	f.llm.responses = []string{
		`{"supplier":"ACME","total_amount":260,"items":[{"name":"Кава смажена GOLD 1кг","quantity":2,"unit":"кг","sum":200},{"name":"Молоко ультрапаст.","quantity":4,"unit":"л","sum":60}]}`,
		`[{"product_id":"42","match_status":"matched_by_ai"},{"product_id":null,"match_status":"unmatched"}]`,
	}

	require.NoError(t, f.flow.HandleInvoicePhoto(ctx, photoMessage()))
	texts := f.messenger.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, constant.MsgRecognizing, texts[0])
	assert.Contains(t, texts[1], "<b>ACME</b>")
	review := f.messenger.last()
	assert.Contains(t, review.Text, constant.MsgReviewFooter)

	// corrections only resolve on the latest bot message
	handled, err := f.flow.HandleReply(ctx, &telegram.Message{
		Chat:           telegram.Chat{ID: 1},
		Text:           "2 - 43",
		ReplyToMessage: &telegram.Message{MessageID: texts2ID(f, 1)},
	})
	require.NoError(t, err)
	assert.False(t, handled)

	require.NoError(t, f.press(t, review, 0, 1))
	prompt := f.messenger.last()
	assert.Equal(t, constant.MsgCorrectionPrompt, prompt.Text)

	handled, err = f.flow.HandleReply(ctx, &telegram.Message{
		Chat:           telegram.Chat{ID: 1},
		Text:           "2 - 43",
		ReplyToMessage: &telegram.Message{MessageID: prompt.MessageID},
	})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"Молоко ультрапаст."}, f.catalog.synonyms("43"))

	review = f.messenger.last()
	assert.Contains(t, review.Text, "👤 <b>Вказано вручну:</b>")
	require.NoError(t, f.press(t, review, 0, 0))

	selection := f.messenger.last()
	assert.Equal(t, constant.MsgSelectTradePoint, selection.Text)

	// the review is confirmed, so corrections are closed
	handled, err = f.flow.HandleReply(ctx, &telegram.Message{
		Chat:           telegram.Chat{ID: 1},
		Text:           "1 - 43",
		ReplyToMessage: &telegram.Message{MessageID: selection.MessageID},
	})
	assert.True(t, handled)
	assert.True(t, apperror.IsKind(err, apperror.KindInput))
	assert.Equal(t, constant.MsgEditsClosed, f.messenger.last().Text)
	require.NoError(t, f.press(t, selection, 0, 0))

	summary := f.messenger.last()
	require.NoError(t, f.press(t, summary, 0, 0))

	assert.Equal(t, []string{"create", "pin", "fill", "commit"}, f.accounting.actions())
	committed := f.accounting.calls[3].Payload.Products.([]skyservice.Product)
	assert.Equal(t, "Кава Gold 1 кг", committed[0].NomenclatureName)
	assert.Equal(t, "Молоко 2,5% 1 л", committed[1].NomenclatureName)
	assert.Equal(t, "✅ Накладну успішно відправлено в SkyService! ID документа: DOC1", f.messenger.last().Text)

	// a second press finds no session
	require.NoError(t, f.press(t, summary, 0, 0))
	assert.Equal(t, constant.MsgStaleSession, f.messenger.last().Text)
	assert.Len(t, f.accounting.calls, 4)
}

// texts2ID returns the message id of the i-th sent message.
func texts2ID(f *flowFixture, i int) int64 {
	f.messenger.mu.Lock()
	defer f.messenger.mu.Unlock()
	return f.messenger.sent[i].MessageID
}

func TestInvoiceFlow_MismatchPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture()
	f.llm.responses = []string{`{"supplier":"ACME","total_amount":250,"items":[{"name":"Coffee 1kg","quantity":2,"unit":"kg","sum":200}]}`}

	err := f.flow.HandleInvoicePhoto(ctx, photoMessage())
	assert.True(t, apperror.IsKind(err, apperror.KindVerification))

	texts := f.messenger.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "(200.00)")
	assert.Contains(t, texts[1], "(250.00)")
	for _, m := range f.messenger.sent {
		_, err := f.store.Get(ctx, entity.SessionKey{ChatID: 1, MessageID: m.MessageID})
		assert.True(t, apperror.IsSessionNotFound(err))
	}

	require.Len(t, f.diagnostics.reports, 1)
	assert.Equal(t, DiagnosticError, f.diagnostics.reports[0].Level)
	assert.Len(t, f.llm.prompts, 1)
}

func TestInvoiceFlow_MatchingFailureKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture()
	f.llm.responses = []string{
		`{"supplier":"ACME","total_amount":200,"items":[{"name":"Coffee 1kg","quantity":2,"unit":"kg","sum":200}]}`,
		"no idea",
	}

	err := f.flow.HandleInvoicePhoto(ctx, photoMessage())
	assert.True(t, apperror.IsKind(err, apperror.KindInference))
	assert.Equal(t, constant.MsgMatchingUnexpected, f.messenger.last().Text)

	state, err := f.store.Get(ctx, entity.SessionKey{ChatID: 1, MessageID: texts2ID(f, 1)})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusRecognitionComplete, state.Status)
}

func TestInvoiceFlow_BadCorrectionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture()

	state := twoItemState()
	key := entity.SessionKey{ChatID: 1, MessageID: 77}
	require.NoError(t, f.store.Create(ctx, key, state))

	handled, err := f.flow.HandleReply(ctx, &telegram.Message{
		Chat:           telegram.Chat{ID: 1},
		Text:           "перша - ок",
		ReplyToMessage: &telegram.Message{MessageID: 77},
	})
	assert.True(t, handled)
	assert.True(t, apperror.IsKind(err, apperror.KindInput))
	assert.Equal(t, constant.MsgCorrectionFormatError, f.messenger.last().Text)

	got, err := f.store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, state.Items, got.Items)
}

func TestInvoiceFlow_ReplyAfterTradePointIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture()

	state := twoItemState()
	state.Items[0].Assign("42", entity.MatchStatusMatchedByAI)
	state.SelectedTradePointKey = "main"
	state.Status = entity.InvoiceStatusReadyToSubmit
	key := entity.SessionKey{ChatID: 1, MessageID: 77}
	require.NoError(t, f.store.Create(ctx, key, state))

	handled, err := f.flow.HandleReply(ctx, &telegram.Message{
		Chat:           telegram.Chat{ID: 1},
		Text:           "1 - 43",
		ReplyToMessage: &telegram.Message{MessageID: 77},
	})
	assert.True(t, handled)
	assert.True(t, apperror.IsKind(err, apperror.KindInput))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Equal(t, constant.MsgEditsClosed, f.messenger.last().Text)

	got, err := f.store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusReadyToSubmit, got.Status)
	assert.Equal(t, "main", got.SelectedTradePointKey)
	assert.Equal(t, "42", got.Items[0].ProductIDValue())
	assert.Equal(t, entity.MatchStatusMatchedByAI, got.Items[0].MatchStatus)
	assert.False(t, got.Items[1].IsMatched())
	assert.Empty(t, f.catalog.synonyms("43"))
	assert.Empty(t, f.accounting.actions())
}
