package implementation

import (
	"context"
	"errors"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/mapper"
	"invoice-intake-be/internal/model"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserAccessRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserAccessMapper
}

func NewUserAccessRepository(db *gorm.DB) contract.UserAccessRepository {
	return &UserAccessRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserAccessMapper(),
	}
}

func (r *UserAccessRepositoryImpl) Upsert(ctx context.Context, access *entity.UserAccess) error {
	m := r.mapper.ToModel(access)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "trade_points", "worker_id", "updated_at"}),
	}).Create(m).Error
}

func (r *UserAccessRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserAccess, error) {
	var m model.UserAccess
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
