package contract

import (
	"context"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/repository/specification"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error)
}
