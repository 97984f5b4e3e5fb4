package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu       sync.Mutex
	subjects []string
}

func (m *fakeMailer) Enabled() bool { return true }

func (m *fakeMailer) SendOperatorAlert(subject, message string, details map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subjects)
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestDiagnostics_ForwardsToDebugChatAndMail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	m := newFakeMessenger()
	mail := &fakeMailer{}
	svc := NewDiagnosticsService(pubSub, m, -500, mail, logger.NewNopLogger())
	require.NoError(t, svc.Consume(ctx))

	svc.Report(ctx, Diagnostic{Level: DiagnosticWarning, Module: "REVIEW", Message: "bad reply", Details: map[string]interface{}{"chat_id": 1}})
	svc.Report(ctx, Diagnostic{Level: DiagnosticCritical, Module: "FLOW", Message: "store down"})

	assert.Eventually(t, func() bool { return m.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return mail.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// delivery order is not guaranteed
	for _, s := range m.sent {
		assert.Equal(t, int64(-500), s.ChatID)
	}
	assert.ElementsMatch(t, []string{"⚠️ [REVIEW] bad reply\nchat_id: 1", "🚨 [FLOW] store down"}, m.texts())
	mail.mu.Lock()
	assert.Equal(t, []string{"[invoice-bot] FLOW: store down"}, mail.subjects)
	mail.mu.Unlock()
}

func TestFormatDiagnostic_SortsDetails(t *testing.T) {
	text := formatDiagnostic(Diagnostic{Level: DiagnosticError, Module: "SUBMISSION", Message: "step failed", Details: map[string]interface{}{"step": "pin", "form_id": "F"}})
	assert.Equal(t, "🔥 [SUBMISSION] step failed\nform_id: F\nstep: pin", text)
}

type fakePublisher struct {
	published []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func TestEventService(t *testing.T) {
	pub := &fakePublisher{}
	diag := &fakeDiagnostics{}
	svc := NewEventService(pub, nil, diag, logger.NewNopLogger())

	f := newSubmissionFixture(t, "pin")
	sub, _ := f.svc.Submit(context.Background(), f.state, origin)
	svc.SubmissionFinished(context.Background(), sub)

	require.Len(t, pub.published, 1)
	event := pub.published[0]
	assert.Equal(t, constant.EventInvoiceSubmissionFailed, event.EventType())
	assert.Equal(t, "failed_at_pin", event.Payload()["stage"])
	assert.Equal(t, "D1", event.Payload()["draft_id"])

	// the failure watcher escalates orphaned drafts
	require.NoError(t, svc.(*eventService).handleFailure(context.Background(), event))
	require.Len(t, diag.reports, 1)
	assert.Equal(t, DiagnosticCritical, diag.reports[0].Level)
	assert.Equal(t, sub.FormID, diag.reports[0].Details["form_id"])

	// nil publisher and subscriber are tolerated
	quiet := NewEventService(nil, nil, diag, logger.NewNopLogger())
	quiet.SubmissionFinished(context.Background(), sub)
	assert.NoError(t, quiet.WatchFailures(context.Background()))
}
