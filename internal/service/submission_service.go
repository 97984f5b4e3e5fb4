package service

import (
	"context"
	"fmt"
	"time"

	"invoice-intake-be/internal/config"
	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/internal/repository/unitofwork"
	"invoice-intake-be/pkg/skyservice"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const stageSubmission = "submission"

// AccountingClient is the draft API of the accounting service.
// *skyservice.Client implements it.
type AccountingClient interface {
	Now() time.Time
	CreateDraft(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) (string, error)
	SaveDraft(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) error
	AddComing(ctx context.Context, target skyservice.Target, payload skyservice.DraftPayload) (string, error)
}

var _ AccountingClient = (*skyservice.Client)(nil)

// Origin is the confirmation message whose button started the submission.
type Origin struct {
	ChatID      int64
	MessageID   int64
	EscapedText string
}

type ISubmissionService interface {
	// Submit runs create, pin, fill and commit in order, stopping at the
	// first failure. The session is deleted whatever the outcome.
	Submit(ctx context.Context, state *entity.InvoiceState, origin Origin) (*entity.Submission, error)
}

type submissionService struct {
	client      AccountingClient
	store       contract.SessionStore
	tradePoints config.TradePoints
	uowFactory  unitofwork.RepositoryFactory
	catalog     ICatalogService
	events      IEventService
	diagnostics IDiagnosticsService
	messenger   Messenger
	logger      logger.ILogger
}

func NewSubmissionService(
	client AccountingClient,
	store contract.SessionStore,
	tradePoints config.TradePoints,
	catalog ICatalogService,
	uowFactory unitofwork.RepositoryFactory,
	events IEventService,
	diagnostics IDiagnosticsService,
	messenger Messenger,
	log logger.ILogger,
) ISubmissionService {
	return &submissionService{
		client:      client,
		store:       store,
		tradePoints: tradePoints,
		uowFactory:  uowFactory,
		catalog:     catalog,
		events:      events,
		diagnostics: diagnostics,
		messenger:   messenger,
		logger:      log,
	}
}

var stepTexts = map[entity.SubmissionStep]struct{ user, note string }{
	entity.SubmissionStepCreate: {constant.MsgCreateDraftFailed, constant.NoteCreateFailed},
	entity.SubmissionStepPin:    {constant.MsgPinDraftFailed, constant.NotePinFailed},
	entity.SubmissionStepFill:   {constant.MsgFillDraftFailed, constant.NoteFillFailed},
	entity.SubmissionStepCommit: {constant.MsgCommitFailed, constant.NoteCommitFailed},
}

func (s *submissionService) Submit(ctx context.Context, state *entity.InvoiceState, origin Origin) (*entity.Submission, error) {
	defer func() {
		if err := s.store.Delete(ctx, state); err != nil {
			s.logger.Warn("SUBMISSION", "Failed to delete session", map[string]interface{}{"session_id": state.SessionID, "error": err.Error()})
		}
	}()

	point, ok := s.tradePoints.Get(state.SelectedTradePointKey)
	if state.SelectedTradePointKey == "" || !ok {
		return nil, apperror.New(apperror.KindConfiguration, stageSubmission, constant.MsgPointsNotConfigured,
			fmt.Errorf("trade point %q: %w", state.SelectedTradePointKey, apperror.ErrInvalidState))
	}

	state.FormID = uuid.NewString()
	sub := &entity.Submission{
		Id:            uuid.New(),
		FormID:        state.FormID,
		SessionID:     state.SessionID,
		ChatID:        state.ChatID,
		TradePointKey: state.SelectedTradePointKey,
		Supplier:      state.Supplier,
		WorkerID:      state.WorkerID,
		Stage:         entity.SubmissionStagePending,
		Total:         state.ItemsTotal(),
		Items:         state.Items,
		CreatedAt:     time.Now(),
	}

	failedStep, stepErr := s.runProtocol(ctx, state, point, sub)
	if stepErr != nil {
		// TODO: compensate by deleting sub.DraftID once the accounting API
		// exposes a draft delete action; until then the failure watcher
		// escalates orphaned drafts to the operator.
		state.Status = entity.InvoiceStatusFailed
		sub.Stage = failedStep.FailedStage()
		sub.FailedStep = failedStep
		sub.ErrorMessage = stepErr.Error()
		s.annotate(ctx, origin, stepTexts[failedStep].note)
	} else {
		state.Status = entity.InvoiceStatusSubmitted
		s.annotate(ctx, origin, fmt.Sprintf(constant.NoteSubmitted, sub.DocumentID))
	}

	s.audit(ctx, sub)
	s.events.SubmissionFinished(ctx, sub)

	s.logger.Info("SUBMISSION", "Submission finished", map[string]interface{}{
		"form_id":     sub.FormID,
		"stage":       string(sub.Stage),
		"draft_id":    sub.DraftID,
		"document_id": sub.DocumentID,
	})

	if stepErr != nil {
		return sub, apperror.New(apperror.KindRemote, string(failedStep), stepTexts[failedStep].user, stepErr)
	}
	return sub, nil
}

// runProtocol returns the failed step and its error, or "" and nil.
func (s *submissionService) runProtocol(ctx context.Context, state *entity.InvoiceState, point config.TradePoint, sub *entity.Submission) (entity.SubmissionStep, error) {
	at := s.client.Now()
	target := skyservice.Target{CompanyID: point.CompanyID, TradePointID: point.TradePointID}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		s.logger.Warn("SUBMISSION", "Catalog unavailable, using invoice names", map[string]interface{}{"form_id": sub.FormID, "error": err.Error()})
		catalog = nil
	}

	steps := []struct {
		step entity.SubmissionStep
		run  func(ctx context.Context) error
	}{
		{entity.SubmissionStepCreate, func(ctx context.Context) error {
			draftID, err := s.client.CreateDraft(ctx, target, skyservice.NewCreatePayload(sub.FormID, point.TradePointID, at, state.WorkerID))
			if err != nil {
				return err
			}
			sub.DraftID = draftID
			target.DraftID = draftID
			return nil
		}},
		{entity.SubmissionStepPin, func(ctx context.Context) error {
			return s.client.SaveDraft(ctx, target, skyservice.NewPinPayload(sub.FormID, point.TradePointID, at, point.WarehouseID))
		}},
		{entity.SubmissionStepFill, func(ctx context.Context) error {
			return s.client.SaveDraft(ctx, target, filledPayload(sub.FormID, state, point, at, catalog))
		}},
		{entity.SubmissionStepCommit, func(ctx context.Context) error {
			documentID, err := s.client.AddComing(ctx, target, filledPayload(sub.FormID, state, point, at, catalog))
			if err != nil {
				return err
			}
			sub.DocumentID = documentID
			return nil
		}},
	}

	tracer := otel.Tracer("invoice-intake-bot/submission")
	for _, st := range steps {
		stepCtx, span := tracer.Start(ctx, "submission."+string(st.step), trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(
			attribute.String("form_id", sub.FormID),
			attribute.String("trade_point", sub.TradePointKey),
		)

		err := st.run(stepCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			s.logger.Error("SUBMISSION", "Submission step failed", map[string]interface{}{
				"form_id":  sub.FormID,
				"step":     string(st.step),
				"draft_id": sub.DraftID,
				"error":    err.Error(),
			})
			return st.step, err
		}

		span.End()
		sub.Stage = st.step.Stage()
	}
	return "", nil
}

// filledPayload names matched lines after the catalog product; unmatched
// lines, and products missing from the snapshot, keep the invoice text.
func filledPayload(formID string, state *entity.InvoiceState, point config.TradePoint, at time.Time, catalog *entity.Catalog) skyservice.DraftPayload {
	products := make([]skyservice.Product, len(state.Items))
	for i, item := range state.Items {
		name := item.Name
		if item.ProductID != nil {
			if product, ok := catalog.Find(*item.ProductID); ok && product.Name != "" {
				name = product.Name
			}
		}
		products[i] = skyservice.NewProduct(item.ProductID, name, item.Unit, item.Quantity, item.FinalPrice, item.Sum)
	}
	return skyservice.NewFilledPayload(formID, point.TradePointID, at, point.WarehouseID, state.Supplier, products)
}

func (s *submissionService) annotate(ctx context.Context, origin Origin, note string) {
	if err := annotate(ctx, s.messenger, origin.ChatID, origin.MessageID, origin.EscapedText, note); err != nil {
		s.logger.Warn("SUBMISSION", "Failed to annotate confirmation message", map[string]interface{}{"error": err.Error()})
	}
}

// audit never changes the outcome the user sees.
func (s *submissionService) audit(ctx context.Context, sub *entity.Submission) {
	if s.uowFactory == nil {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubmissionRepository().Create(ctx, sub); err != nil {
		s.diagnostics.Report(ctx, Diagnostic{
			Level:   DiagnosticError,
			Module:  "SUBMISSION",
			Message: "Failed to write submission audit record",
			Details: map[string]interface{}{
				"form_id":     sub.FormID,
				"stage":       string(sub.Stage),
				"document_id": sub.DocumentID,
				"error":       err.Error(),
			},
		})
	}
}
