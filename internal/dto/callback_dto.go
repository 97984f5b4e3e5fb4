package dto

import (
	"errors"
	"strings"

	"invoice-intake-be/pkg/telegram"
)

type CallbackAction string

const (
	ActionEditErrors       CallbackAction = "edit_errors_"
	ActionConfirmReview    CallbackAction = "confirm_review_"
	ActionSelectTradePoint CallbackAction = "select_tradepoint_"
	ActionSubmit           CallbackAction = "send_to_skyservice_"
)

// MaxCallbackDataLen is the Bot API limit for callback_data.
const MaxCallbackDataLen = 64

var (
	ErrUnknownCallback   = errors.New("unknown callback action")
	ErrMalformedCallback = errors.New("malformed callback data")
)

var callbackActions = []CallbackAction{ActionEditErrors, ActionConfirmReview, ActionSelectTradePoint, ActionSubmit}

// CallbackData is the decoded payload of an inline button. Session ids never
// contain '_', so for trade point selection the id is the last segment and
// everything between the action tag and it is the trade point key.
type CallbackData struct {
	Action        CallbackAction
	SessionID     string
	TradePointKey string
}

func (d CallbackData) Encode() string {
	if d.Action == ActionSelectTradePoint {
		return string(d.Action) + d.TradePointKey + "_" + d.SessionID
	}
	return string(d.Action) + d.SessionID
}

func ParseCallbackData(data string) (CallbackData, error) {
	for _, action := range callbackActions {
		rest, ok := strings.CutPrefix(data, string(action))
		if !ok {
			continue
		}

		if action != ActionSelectTradePoint {
			if rest == "" || strings.Contains(rest, "_") {
				return CallbackData{}, ErrMalformedCallback
			}
			return CallbackData{Action: action, SessionID: rest}, nil
		}

		i := strings.LastIndexByte(rest, '_')
		if i <= 0 || i == len(rest)-1 {
			return CallbackData{}, ErrMalformedCallback
		}
		return CallbackData{Action: action, TradePointKey: rest[:i], SessionID: rest[i+1:]}, nil
	}
	return CallbackData{}, ErrUnknownCallback
}

// CallbackContext is a pressed button with the message it was attached to.
type CallbackContext struct {
	QueryID     string
	ChatID      int64
	MessageID   int64
	UserID      int64
	MessageText string
	Data        CallbackData
}

func NewCallbackContext(q *telegram.CallbackQuery, data CallbackData) CallbackContext {
	c := CallbackContext{QueryID: q.ID, UserID: q.From.ID, Data: data}
	if q.Message != nil {
		c.ChatID = q.Message.Chat.ID
		c.MessageID = q.Message.MessageID
		c.MessageText = q.Message.Text
	}
	return c
}
