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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorrections(t *testing.T) {
	got := ParseCorrections("1 - 42, 2-43\n3 -  X-7;  junk 4")
	require.Len(t, got, 3)
	assert.Equal(t, Correction{Raw: "1 - 42", Position: 1, ProductID: "42"}, got[0])
	assert.Equal(t, Correction{Raw: "2-43", Position: 2, ProductID: "43"}, got[1])
	assert.Equal(t, "X-7", got[2].ProductID)

	compact := ParseCorrections("1-42,2-43;3-44")
	require.Len(t, compact, 3)
	assert.Equal(t, Correction{Raw: "1-42", Position: 1, ProductID: "42"}, compact[0])
	assert.Equal(t, Correction{Raw: "2-43", Position: 2, ProductID: "43"}, compact[1])
	assert.Equal(t, Correction{Raw: "3-44", Position: 3, ProductID: "44"}, compact[2])

	assert.Empty(t, ParseCorrections("все вірно"))
}

func TestApplyCorrections_UserMatchesAndSynonyms(t *testing.T) {
	catalog := coffeeCatalog()
	svc := NewReviewService(newFakeMessenger(), memory.NewSessionRepository(time.Hour), catalog, logger.NewNopLogger())
	snapshot, _ := catalog.GetCatalog(context.Background())
	state := twoItemState()

	result, err := svc.ApplyCorrections(context.Background(), state, snapshot, "1 - 42, 2-43")
	require.NoError(t, err)
	assert.Len(t, result.Applied, 2)
	assert.Equal(t, 2, result.LearnedSynonyms)
	assert.False(t, result.HasSkipped())

	assert.Equal(t, "42", state.Items[0].ProductIDValue())
	assert.Equal(t, "43", state.Items[1].ProductIDValue())
	assert.Equal(t, entity.MatchStatusMatchedByUser, state.Items[0].MatchStatus)
	assert.Equal(t, entity.MatchStatusMatchedByUser, state.Items[1].MatchStatus)
	assert.Equal(t, []string{"Кава смажена GOLD 1кг"}, catalog.synonyms("42"))
	assert.Equal(t, []string{"Молоко ультрапаст. 2.5%"}, catalog.synonyms("43"))

	// same reply again changes nothing
	again, err := svc.ApplyCorrections(context.Background(), state, snapshot, "2-43, 1 - 42")
	require.NoError(t, err)
	assert.Equal(t, 0, again.LearnedSynonyms)
	assert.Equal(t, "42", state.Items[0].ProductIDValue())
	assert.Equal(t, entity.MatchStatusMatchedByUser, state.Items[1].MatchStatus)
	assert.Len(t, catalog.synonyms("42"), 1)
	assert.Len(t, catalog.synonyms("43"), 1)
}

func TestApplyCorrections_RejectsAndSkips(t *testing.T) {
	catalog := coffeeCatalog()
	svc := NewReviewService(newFakeMessenger(), memory.NewSessionRepository(time.Hour), catalog, logger.NewNopLogger())
	snapshot, _ := catalog.GetCatalog(context.Background())

	state := twoItemState()
	before := append([]entity.LineItem(nil), state.Items...)
	_, err := svc.ApplyCorrections(context.Background(), state, snapshot, "перша позиція це кава")
	fe, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInput, fe.Kind)
	assert.Equal(t, constant.MsgCorrectionFormatError, fe.UserMessage)
	assert.Equal(t, before, state.Items)
	assert.Equal(t, entity.InvoiceStatusMatchingComplete, state.Status)

	result, err := svc.ApplyCorrections(context.Background(), state, snapshot, "5 - 42, 1 - 999, 2 - 43")
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)
	require.Len(t, result.UnknownPosition, 1)
	require.Len(t, result.UnknownProduct, 1)
	assert.False(t, state.Items[0].IsMatched())
	assert.Equal(t, "43", state.Items[1].ProductIDValue())

	note := RenderSkipped(result)
	assert.Contains(t, note, "5 - 42")
	assert.Contains(t, note, "1 - 999")
}

func TestPresent_RekeysToNewMessage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionRepository(time.Hour)
	m := newFakeMessenger()
	catalog := coffeeCatalog()
	snapshot, _ := catalog.GetCatalog(ctx)
	svc := NewReviewService(m, store, catalog, logger.NewNopLogger())

	state := twoItemState()
	state.Items[0].Assign("42", entity.MatchStatusMatchedByAI)
	oldKey := entity.SessionKey{ChatID: 1, MessageID: 10}
	require.NoError(t, store.Create(ctx, oldKey, state))

	require.NoError(t, svc.Present(ctx, state, snapshot))
	review := m.last()

	_, err := store.Get(ctx, oldKey)
	assert.True(t, apperror.IsSessionNotFound(err))

	got, err := store.Get(ctx, entity.SessionKey{ChatID: 1, MessageID: review.MessageID})
	require.NoError(t, err)
	assert.Equal(t, state.Items, got.Items)
	assert.Equal(t, state.SessionID, got.SessionID)

	assert.Contains(t, review.Text, "🤖 <b>Зіставлено:</b>")
	assert.Contains(t, review.Text, "<code>Кава Gold 1 кг</code> (ID: 42)")
	assert.Contains(t, review.Text, "❓ <b>Не знайдено:</b>")
	require.NotNil(t, review.Keyboard)
	buttons := review.Keyboard.InlineKeyboard[0]
	assert.Equal(t, dto.CallbackData{Action: dto.ActionConfirmReview, SessionID: state.SessionID}.Encode(), buttons[0].CallbackData)
	assert.Equal(t, "edit_errors_"+state.SessionID, buttons[1].CallbackData)

	require.NoError(t, svc.RequestCorrections(ctx, state))
	prompt := m.last()
	_, err = store.Get(ctx, entity.SessionKey{ChatID: 1, MessageID: review.MessageID})
	assert.True(t, apperror.IsSessionNotFound(err))
	got, err = store.Get(ctx, entity.SessionKey{ChatID: 1, MessageID: prompt.MessageID})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusAwaitingCorrection, got.Status)
}
