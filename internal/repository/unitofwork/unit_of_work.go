package unitofwork

import (
	"context"

	"invoice-intake-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductRepository() contract.ProductRepository
	UserAccessRepository() contract.UserAccessRepository
	SubmissionRepository() contract.SubmissionRepository
}
