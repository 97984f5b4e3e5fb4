package skyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const statusDone = "done"

var ErrMissingID = errors.New("response carries no identifier")

// StatusError is returned when a call completes but status != "done".
type StatusError struct {
	Action string
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("skyservice %s: status %q, body %s", e.Action, e.Status, e.Body)
}

type Config struct {
	BaseURL    string
	Token      string
	DeviceUUID string
	// Timezone follows the service convention: -3 means UTC+3.
	Timezone int
}

// Target addresses one company/trade point, and a draft once it exists.
type Target struct {
	CompanyID    string
	TradePointID int64
	DraftID      string
}

type Client struct {
	cfg      Config
	http     *http.Client
	location *time.Location
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 60 * time.Second},
		location: time.FixedZone("sky", -cfg.Timezone*3600),
	}
}

// Now returns the current time in the service's timezone.
func (c *Client) Now() time.Time {
	return time.Now().In(c.location)
}

type response struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// id reads data as a string or a number.
func (r response) id() (string, bool) {
	raw := strings.TrimSpace(string(r.Data))
	if raw == "" || raw == "null" || raw == "false" || raw == `""` || raw == "0" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s, s != ""
	}

	var n json.Number
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}
	return "", false
}

func (c *Client) endpoint(action, section string, target Target) string {
	q := url.Values{}
	q.Set("action", action)
	q.Set("section", section)
	q.Set("timezone", strconv.Itoa(c.cfg.Timezone))
	q.Set("token", c.cfg.Token)
	q.Set("device_uuid", c.cfg.DeviceUUID)
	q.Set("companyId", target.CompanyID)
	q.Set("tradepointId", strconv.FormatInt(target.TradePointID, 10))
	if target.DraftID != "" {
		q.Set("draftId", target.DraftID)
	}
	return c.cfg.BaseURL + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, action, section string, target Target, payload DraftPayload) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action, section, target), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("skyservice %s request failed: %w", action, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	var out response
	if err := json.Unmarshal(resBody, &out); err != nil {
		return nil, fmt.Errorf("skyservice %s: status %d, undecodable body %q: %w", action, res.StatusCode, string(resBody), err)
	}
	if out.Status != statusDone {
		return nil, &StatusError{Action: action, Status: out.Status, Body: string(resBody)}
	}
	return &out, nil
}

// CreateDraft opens a new draft and returns its id.
func (c *Client) CreateDraft(ctx context.Context, target Target, payload DraftPayload) (string, error) {
	res, err := c.do(ctx, "createDraft", "drafts", target, payload)
	if err != nil {
		return "", err
	}
	id, ok := res.id()
	if !ok {
		return "", fmt.Errorf("skyservice createDraft: %w", ErrMissingID)
	}
	return id, nil
}

func (c *Client) SaveDraft(ctx context.Context, target Target, payload DraftPayload) error {
	_, err := c.do(ctx, "saveDraft", "drafts", target, payload)
	return err
}

// AddComing converts a filled draft into an inbound-stock document.
func (c *Client) AddComing(ctx context.Context, target Target, payload DraftPayload) (string, error) {
	res, err := c.do(ctx, "addComing", "productMotion", target, payload)
	if err != nil {
		return "", err
	}
	id, ok := res.id()
	if !ok {
		return "", fmt.Errorf("skyservice addComing: %w", ErrMissingID)
	}
	return id, nil
}
