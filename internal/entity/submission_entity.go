package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubmissionStep string
type SubmissionStage string

const (
	SubmissionStepCreate SubmissionStep = "create"
	SubmissionStepPin    SubmissionStep = "pin"
	SubmissionStepFill   SubmissionStep = "fill"
	SubmissionStepCommit SubmissionStep = "commit"

	SubmissionStagePending      SubmissionStage = "pending"
	SubmissionStageDraftCreated SubmissionStage = "draft_created"
	SubmissionStageDraftPinned  SubmissionStage = "draft_pinned"
	SubmissionStageDraftFilled  SubmissionStage = "draft_filled"
	SubmissionStageCommitted    SubmissionStage = "committed"
)

// Stage reached after the step succeeds.
func (s SubmissionStep) Stage() SubmissionStage {
	switch s {
	case SubmissionStepCreate:
		return SubmissionStageDraftCreated
	case SubmissionStepPin:
		return SubmissionStageDraftPinned
	case SubmissionStepFill:
		return SubmissionStageDraftFilled
	case SubmissionStepCommit:
		return SubmissionStageCommitted
	}
	return SubmissionStagePending
}

// FailedStage is the absorbing stage recorded when the step fails.
func (s SubmissionStep) FailedStage() SubmissionStage {
	return SubmissionStage("failed_at_" + string(s))
}

func (s SubmissionStage) IsFailed() bool {
	return strings.HasPrefix(string(s), "failed_at_")
}

// Submission is the audit record of one submission attempt.
type Submission struct {
	Id            uuid.UUID
	FormID        string
	SessionID     string
	ChatID        int64
	DraftID       string
	DocumentID    string
	TradePointKey string
	Supplier      string
	WorkerID      int64
	Stage         SubmissionStage
	FailedStep    SubmissionStep
	ErrorMessage  string
	Total         float64
	Items         []LineItem
	CreatedAt     time.Time
}

func (s *Submission) Succeeded() bool {
	return s.Stage == SubmissionStageCommitted
}
