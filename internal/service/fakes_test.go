package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"invoice-intake-be/internal/config"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/pkg/llm"
	"invoice-intake-be/pkg/skyservice"
	"invoice-intake-be/pkg/telegram"
)

type sentMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Keyboard  *telegram.InlineKeyboardMarkup
}

type fakeMessenger struct {
	mu          sync.Mutex
	nextID      int64
	sent        []sentMessage
	edits       []sentMessage
	file        []byte
	downloadErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, file: []byte("jpeg")}
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) (*telegram.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := telegram.NewSendMessageRequest(chatID, text, opts...)
	m.nextID++
	m.sent = append(m.sent, sentMessage{ChatID: chatID, MessageID: m.nextID, Text: text, Keyboard: req.ReplyMarkup})
	return &telegram.Message{MessageID: m.nextID, Chat: telegram.Chat{ID: chatID}, Text: text}, nil
}

func (m *fakeMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, sentMessage{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (m *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	return nil
}

func (m *fakeMessenger) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return m.file, m.downloadErr
}

func (m *fakeMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.Text
	}
	return out
}

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	options   []*llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("chat not used")
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, llm.NewOptions(options...))
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	return res, err
}

// fakeCatalog keeps products in memory and learns synonyms with the real
// dedup rule.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	access   map[int64]*entity.UserAccess
}

func newFakeCatalog(products ...entity.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[string]*entity.Product{}, access: map[int64]*entity.UserAccess{}}
	for i := range products {
		p := products[i]
		c.products[p.ProductID] = &p
	}
	return c
}

func (c *fakeCatalog) GetCatalog(ctx context.Context) (*entity.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]entity.Product, 0, len(c.products))
	for _, p := range c.products {
		list = append(list, *p)
	}
	return entity.NewCatalog(list), nil
}

func (c *fakeCatalog) GetUserAccess(ctx context.Context, telegramUserID int64) (*entity.UserAccess, error) {
	return c.access[telegramUserID], nil
}

func (c *fakeCatalog) LearnSynonym(ctx context.Context, productID, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok || synonymKnown(p, text) {
		return false, nil
	}
	p.Synonyms = append(p.Synonyms, text)
	return true, nil
}

func (c *fakeCatalog) synonyms(productID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.products[productID].Synonyms...)
}

type accountingCall struct {
	Action  string
	Target  skyservice.Target
	Payload skyservice.DraftPayload
}

type fakeAccounting struct {
	mu     sync.Mutex
	calls  []accountingCall
	failAt string
	saves  int
}

var errRemote = errors.New("status error")

func (f *fakeAccounting) Now() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (f *fakeAccounting) record(action string, target skyservice.Target, payload skyservice.DraftPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, accountingCall{Action: action, Target: target, Payload: payload})
	if f.failAt == action {
		return errRemote
	}
	return nil
}

func (f *fakeAccounting) CreateDraft(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) (string, error) {
	if err := f.record("create", target, payload); err != nil {
		return "", err
	}
	return "D1", nil
}

func (f *fakeAccounting) SaveDraft(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) error {
	f.mu.Lock()
	f.saves++
	action := "pin"
	if f.saves > 1 {
		action = "fill"
	}
	f.mu.Unlock()
	return f.record(action, target, payload)
}

func (f *fakeAccounting) AddComing(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) (string, error) {
	if err := f.record("commit", target, payload); err != nil {
		return "", err
	}
	return "DOC1", nil
}

func (f *fakeAccounting) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Action
	}
	return out
}

type fakeEvents struct {
	mu          sync.Mutex
	submissions []*entity.Submission
}

func (f *fakeEvents) SubmissionFinished(ctx context.Context, submission *entity.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission)
}

func (f *fakeEvents) WatchFailures(ctx context.Context) error { return nil }

type fakeDiagnostics struct {
	mu      sync.Mutex
	reports []Diagnostic
}

func (f *fakeDiagnostics) Report(ctx context.Context, d Diagnostic) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, d)
}

func (f *fakeDiagnostics) Consume(ctx context.Context) error { return nil }

func testTradePoints() config.TradePoints {
	return config.TradePoints{
		"main":  {Name: "Кав'ярня Центр", CompanyID: "C1", TradePointID: 2, WarehouseID: 4},
		"north": {Name: "Кав'ярня Північ", CompanyID: "C1", TradePointID: 3, WarehouseID: 5},
	}
}

func coffeeCatalog() *fakeCatalog {
	return newFakeCatalog(
		entity.Product{ProductID: "42", Name: "Кава Gold 1 кг"},
		entity.Product{ProductID: "43", Name: "Молоко 2,5% 1 л"},
	)
}

func twoItemState() *entity.InvoiceState {
	return &entity.InvoiceState{
		ChatID:        1,
		Status:        entity.InvoiceStatusMatchingComplete,
		Supplier:      "ACME",
		DeclaredTotal: 260,
		Items: []entity.LineItem{
			entity.NewLineItem("Кава смажена GOLD 1кг", 2, "кг", 200),
			entity.NewLineItem("Молоко ультрапаст. 2.5%", 4, "л", 60),
		},
	}
}
