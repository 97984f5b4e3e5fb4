package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	ParseModeHTML  = "HTML"
	// MaxMessageLength is the Bot API limit for a text message, in UTF-16 units.
	MaxMessageLength = 4096
)

// APIError is returned when the Bot API answers ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: %d %s", e.Method, e.Code, e.Description)
}

// IsNotModified reports the harmless edit error for unchanged text.
func IsNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified")
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var apiRes apiResponse
	if err := json.Unmarshal(resBody, &apiRes); err != nil {
		return fmt.Errorf("telegram %s: status %d, undecodable body: %w", method, res.StatusCode, err)
	}
	if !apiRes.OK {
		return &APIError{Method: method, Code: apiRes.ErrorCode, Description: apiRes.Description}
	}

	if result != nil && len(apiRes.Result) > 0 {
		if err := json.Unmarshal(apiRes.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessageRequest is the sendMessage body after options are applied.
type SendMessageRequest struct {
	ChatID           int64                 `json:"chat_id"`
	Text             string                `json:"text"`
	ParseMode        string                `json:"parse_mode,omitempty"`
	MessageThreadID  int64                 `json:"message_thread_id,omitempty"`
	ReplyToMessageID int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type SendOption func(*SendMessageRequest)

func WithKeyboard(markup *InlineKeyboardMarkup) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyMarkup = markup
	}
}

func WithReplyTo(messageID int64) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyToMessageID = messageID
	}
}

func WithThread(threadID int64) SendOption {
	return func(r *SendMessageRequest) {
		r.MessageThreadID = threadID
	}
}

// WithPlainText disables HTML parsing (diagnostic dumps).
func WithPlainText() SendOption {
	return func(r *SendMessageRequest) {
		r.ParseMode = ""
	}
}

func NewSendMessageRequest(chatID int64, text string, opts ...SendOption) *SendMessageRequest {
	req := &SendMessageRequest{ChatID: chatID, Text: text, ParseMode: ParseModeHTML}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// SendMessage sends HTML-formatted text and returns the sent message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) (*Message, error) {
	req := NewSendMessageRequest(chatID, text, opts...)

	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type editMessageTextRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText replaces the text of a sent message and drops its keyboard.
// Unchanged text is not an error.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	req := editMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text, ParseMode: ParseModeHTML}
	err := c.call(ctx, "editMessageText", req, nil)
	if IsNotModified(err) {
		return nil
	}
	return err
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	req := map[string]any{"callback_query_id": callbackQueryID}
	if text != "" {
		req["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: no file_path for %s", fileID)
	}
	return &f, nil
}

// DownloadFile resolves fileID and fetches its bytes.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, f.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", f.FilePath, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", f.FilePath, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

type setWebhookRequest struct {
	URL                string   `json:"url"`
	SecretToken        string   `json:"secret_token,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
}

func (c *Client) SetWebhook(ctx context.Context, url, secret string, dropPending bool) error {
	req := setWebhookRequest{
		URL:                url,
		SecretToken:        secret,
		AllowedUpdates:     []string{"message", "callback_query"},
		DropPendingUpdates: dropPending,
	}
	return c.call(ctx, "setWebhook", req, nil)
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", struct{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
