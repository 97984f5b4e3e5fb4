package contract

import (
	"context"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/repository/specification"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type UserAccessRepository interface {
	Upsert(ctx context.Context, access *entity.UserAccess) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserAccess, error)
}
