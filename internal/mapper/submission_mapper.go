package mapper

import (
	"encoding/json"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SubmissionMapper struct{}

func NewSubmissionMapper() *SubmissionMapper {
	return &SubmissionMapper{}
}

func (m *SubmissionMapper) ToEntity(s *model.InvoiceSubmission) *entity.Submission {
	if s == nil {
		return nil
	}

	var items []entity.LineItem
	if len(s.Items) > 0 {
		// A corrupt payload only loses the line detail of the audit row.
		_ = json.Unmarshal(s.Items, &items)
	}

	return &entity.Submission{
		Id:            s.Id,
		FormID:        s.FormID,
		SessionID:     s.SessionID,
		ChatID:        s.ChatID,
		DraftID:       deref(s.DraftID),
		DocumentID:    deref(s.DocumentID),
		TradePointKey: s.TradePointKey,
		Supplier:      s.Supplier,
		WorkerID:      s.WorkerID,
		Stage:         entity.SubmissionStage(s.Stage),
		FailedStep:    entity.SubmissionStep(deref(s.FailedStep)),
		ErrorMessage:  deref(s.ErrorMessage),
		Total:         s.Total.InexactFloat64(),
		Items:         items,
		CreatedAt:     s.CreatedAt,
	}
}

func (m *SubmissionMapper) ToModel(s *entity.Submission) (*model.InvoiceSubmission, error) {
	if s == nil {
		return nil, nil
	}

	items, err := json.Marshal(s.Items)
	if err != nil {
		return nil, err
	}

	return &model.InvoiceSubmission{
		Id:            s.Id,
		FormID:        s.FormID,
		SessionID:     s.SessionID,
		ChatID:        s.ChatID,
		DraftID:       ref(s.DraftID),
		DocumentID:    ref(s.DocumentID),
		TradePointKey: s.TradePointKey,
		Supplier:      s.Supplier,
		WorkerID:      s.WorkerID,
		Stage:         string(s.Stage),
		FailedStep:    ref(string(s.FailedStep)),
		ErrorMessage:  ref(s.ErrorMessage),
		Total:         decimal.NewFromFloat(s.Total).Round(2),
		Items:         datatypes.JSON(items),
		CreatedAt:     s.CreatedAt,
	}, nil
}

func (m *SubmissionMapper) ToEntities(rows []*model.InvoiceSubmission) []*entity.Submission {
	entities := make([]*entity.Submission, len(rows))
	for i, r := range rows {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
