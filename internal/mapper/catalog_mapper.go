package mapper

import (
	"time"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/model"

	"gorm.io/datatypes"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToEntity(p *model.Product) *entity.Product {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	synonyms := make([]string, len(p.Synonyms))
	copy(synonyms, p.Synonyms)

	return &entity.Product{
		ProductID: p.ProductID,
		Name:      p.Name,
		Synonyms:  synonyms,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ProductMapper) ToModel(p *entity.Product) *model.Product {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	synonyms := p.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}

	return &model.Product{
		ProductID: p.ProductID,
		Name:      p.Name,
		Synonyms:  datatypes.JSONSlice[string](synonyms),
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ProductMapper) ToEntities(products []*model.Product) []*entity.Product {
	entities := make([]*entity.Product, len(products))
	for i, p := range products {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type UserAccessMapper struct{}

func NewUserAccessMapper() *UserAccessMapper {
	return &UserAccessMapper{}
}

func (m *UserAccessMapper) ToEntity(a *model.UserAccess) *entity.UserAccess {
	if a == nil {
		return nil
	}
	points := make([]string, len(a.TradePoints))
	copy(points, a.TradePoints)

	return &entity.UserAccess{
		TelegramUserID: a.TelegramUserID,
		Name:           a.Name,
		TradePoints:    points,
		WorkerID:       a.WorkerID,
	}
}

func (m *UserAccessMapper) ToModel(a *entity.UserAccess) *model.UserAccess {
	if a == nil {
		return nil
	}
	points := a.TradePoints
	if points == nil {
		points = []string{}
	}
	return &model.UserAccess{
		TelegramUserID: a.TelegramUserID,
		Name:           a.Name,
		TradePoints:    datatypes.JSONSlice[string](points),
		WorkerID:       a.WorkerID,
	}
}
