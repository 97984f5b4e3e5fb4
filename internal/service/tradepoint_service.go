package service

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"invoice-intake-be/internal/config"
	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/pkg/telegram"
	"invoice-intake-be/pkg/utils"
)

const stageTradePoint = "trade_point"

type ITradePointService interface {
	// PresentSelection offers one button per authorized, configured point.
	PresentSelection(ctx context.Context, state *entity.InvoiceState, telegramUserID int64) error
	// Select re-checks authorization, stores the key and sends the final
	// summary with the submit button. It returns the chosen point.
	Select(ctx context.Context, state *entity.InvoiceState, telegramUserID int64, pointKey string) (config.TradePoint, error)
}

type tradePointService struct {
	messenger   Messenger
	store       contract.SessionStore
	catalog     ICatalogService
	tradePoints config.TradePoints
	logger      logger.ILogger
}

func NewTradePointService(messenger Messenger, store contract.SessionStore, catalog ICatalogService, tradePoints config.TradePoints, log logger.ILogger) ITradePointService {
	return &tradePointService{
		messenger:   messenger,
		store:       store,
		catalog:     catalog,
		tradePoints: tradePoints,
		logger:      log,
	}
}

// authorizedPoints returns the configured keys the user may submit to, in
// the order of the access record.
func (s *tradePointService) authorizedPoints(ctx context.Context, telegramUserID int64) (*entity.UserAccess, []string, error) {
	access, err := s.catalog.GetUserAccess(ctx, telegramUserID)
	if err != nil {
		return nil, nil, apperror.New(apperror.KindInternal, stageTradePoint, constant.MsgInternal, err)
	}
	if access == nil || len(access.TradePoints) == 0 {
		return nil, nil, apperror.New(apperror.KindPermission, stageTradePoint, constant.MsgNoAccess,
			fmt.Errorf("user %d has no trade point access", telegramUserID))
	}

	keys := make([]string, 0, len(access.TradePoints))
	for _, key := range access.TradePoints {
		if _, ok := s.tradePoints.Get(key); ok && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, nil, apperror.New(apperror.KindConfiguration, stageTradePoint, constant.MsgPointsNotConfigured,
			fmt.Errorf("user %d points %v: %w", telegramUserID, access.TradePoints, apperror.ErrNotConfigured))
	}
	return access, keys, nil
}

func (s *tradePointService) PresentSelection(ctx context.Context, state *entity.InvoiceState, telegramUserID int64) error {
	access, keys, err := s.authorizedPoints(ctx, telegramUserID)
	if err != nil {
		return err
	}
	state.WorkerID = access.WorkerID

	rows := make([][]telegram.InlineKeyboardButton, 0, len(keys))
	for _, key := range keys {
		data := dto.CallbackData{Action: dto.ActionSelectTradePoint, TradePointKey: key, SessionID: state.SessionID}.Encode()
		if len(data) > dto.MaxCallbackDataLen {
			s.logger.Warn("TRADEPOINT", "Trade point key too long for a button", map[string]interface{}{"key": key})
			continue
		}
		point, _ := s.tradePoints.Get(key)
		rows = append(rows, telegram.Row(telegram.Button(pointName(key, point), data)))
	}
	if len(rows) == 0 {
		return apperror.New(apperror.KindConfiguration, stageTradePoint, constant.MsgPointsNotConfigured,
			fmt.Errorf("no selectable trade point for user %d", telegramUserID))
	}

	// Corrections close here.
	state.Status = entity.InvoiceStatusTradePointSelected

	keyboard := &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
	if err := emitAndRekey(ctx, s.messenger, s.store, state, constant.MsgSelectTradePoint, telegram.WithKeyboard(keyboard)); err != nil {
		return apperror.New(apperror.KindInternal, stageTradePoint, constant.MsgInternal, err)
	}
	return nil
}

func (s *tradePointService) Select(ctx context.Context, state *entity.InvoiceState, telegramUserID int64, pointKey string) (config.TradePoint, error) {
	access, keys, err := s.authorizedPoints(ctx, telegramUserID)
	if err != nil {
		return config.TradePoint{}, err
	}
	if !slices.Contains(keys, pointKey) {
		return config.TradePoint{}, apperror.New(apperror.KindPermission, stageTradePoint, constant.MsgNoAccess,
			fmt.Errorf("user %d is not authorized for point %q", telegramUserID, pointKey))
	}

	point, _ := s.tradePoints.Get(pointKey)
	if state.WorkerID == 0 {
		state.WorkerID = access.WorkerID
	}
	state.SelectedTradePointKey = pointKey

	keyboard := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		telegram.Row(telegram.Button(constant.BtnSubmit, dto.CallbackData{Action: dto.ActionSubmit, SessionID: state.SessionID}.Encode())),
	}}

	state.Status = entity.InvoiceStatusReadyToSubmit
	if err := emitAndRekey(ctx, s.messenger, s.store, state, RenderSummary(state, pointName(pointKey, point)), telegram.WithKeyboard(keyboard)); err != nil {
		return config.TradePoint{}, apperror.New(apperror.KindInternal, stageTradePoint, constant.MsgInternal, err)
	}

	s.logger.Info("TRADEPOINT", "Trade point selected", map[string]interface{}{
		"session_id":  state.SessionID,
		"trade_point": pointKey,
		"user_id":     telegramUserID,
	})
	return point, nil
}

func pointName(key string, point config.TradePoint) string {
	if point.Name != "" {
		return point.Name
	}
	return "Точка #" + key
}

func RenderSummary(state *entity.InvoiceState, pointName string) string {
	var b strings.Builder
	b.WriteString(constant.MsgFinalHeader)
	fmt.Fprintf(&b, "<b>Постачальник:</b> %s\n", html.EscapeString(state.Supplier))
	fmt.Fprintf(&b, "<b>Торгова точка:</b> %s\n\n", html.EscapeString(pointName))

	for _, item := range state.Items {
		glyph := constant.GlyphUnmatched
		switch item.MatchStatus {
		case entity.MatchStatusMatchedByAI:
			glyph = constant.GlyphMatchedByAI
		case entity.MatchStatusMatchedByUser:
			glyph = constant.GlyphMatchedByUser
		}

		id := item.ProductIDValue()
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(&b, "%s <b>%s</b> (ID: %s)\n", glyph, html.EscapeString(item.Name), html.EscapeString(id))
		fmt.Fprintf(&b, "   %s %s × %s грн = <b>%s грн</b>\n",
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			html.EscapeString(item.Unit),
			utils.FormatMoney(item.FinalPrice),
			utils.FormatMoney(item.Sum))
	}

	fmt.Fprintf(&b, "\n<b>Разом до сплати: %s грн</b>\n", utils.FormatMoney(state.ItemsTotal()))
	b.WriteString(constant.MsgFinalFooter)
	return b.String()
}
