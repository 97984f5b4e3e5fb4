package service

import (
	"context"
	"testing"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/internal/repository/specification"
	"invoice-intake-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProducts struct {
	products map[string]*entity.Product
	findAll  int
}

func (r *memoryProducts) Create(ctx context.Context, product *entity.Product) error {
	p := *product
	r.products[p.ProductID] = &p
	return nil
}

func (r *memoryProducts) Update(ctx context.Context, product *entity.Product) error {
	return r.Create(ctx, product)
}

func (r *memoryProducts) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByProductID); ok {
			if p, found := r.products[byID.ProductID]; found {
				cp := *p
				cp.Synonyms = append([]string(nil), p.Synonyms...)
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *memoryProducts) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	r.findAll++
	out := make([]*entity.Product, 0, len(r.products))
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryProducts) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.products)), nil
}

type memoryUoW struct {
	products *memoryProducts
}

func (u *memoryUoW) Begin(ctx context.Context) error { return nil }
func (u *memoryUoW) Commit() error                   { return nil }
func (u *memoryUoW) Rollback() error                 { return nil }

func (u *memoryUoW) ProductRepository() contract.ProductRepository { return u.products }

func (u *memoryUoW) UserAccessRepository() contract.UserAccessRepository { return nil }

func (u *memoryUoW) SubmissionRepository() contract.SubmissionRepository { return nil }

type memoryFactory struct {
	uow *memoryUoW
}

func (f *memoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func TestCatalogService_SnapshotAndSynonyms(t *testing.T) {
	repo := &memoryProducts{products: map[string]*entity.Product{
		"42": {ProductID: "42", Name: "Кава Gold 1 кг", Synonyms: []string{"кава голд 1кг"}},
	}}
	svc := NewCatalogService(&memoryFactory{uow: &memoryUoW{products: repo}}, logger.NewNopLogger())
	ctx := context.Background()

	catalog, err := svc.GetCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, catalog.Contains("42"))
	_, _ = svc.GetCatalog(ctx)
	assert.Equal(t, 1, repo.findAll)

	learned, err := svc.LearnSynonym(ctx, "42", "Кава смажена Gold 1кг опт")
	require.NoError(t, err)
	assert.True(t, learned)
	assert.Equal(t, []string{"кава голд 1кг", "Кава смажена Gold 1кг опт"}, repo.products["42"].Synonyms)

	// the snapshot is refreshed after learning
	_, _ = svc.GetCatalog(ctx)
	assert.Equal(t, 2, repo.findAll)

	for _, dup := range []string{"КАВА СМАЖЕНА GOLD 1КГ ОПТ", "кава голд", "Кава голд 1 кг", "  "} {
		learned, err := svc.LearnSynonym(ctx, "42", dup)
		require.NoError(t, err)
		assert.False(t, learned, dup)
	}

	learned, err = svc.LearnSynonym(ctx, "999", "whatever")
	require.NoError(t, err)
	assert.False(t, learned)
	assert.Len(t, repo.products["42"].Synonyms, 2)
}

func TestSynonymKnown(t *testing.T) {
	product := &entity.Product{Name: "Молоко 2,5% 1 л", Synonyms: []string{"молоко ультрапастеризоване"}}

	tests := []struct {
		candidate string
		want      bool
	}{
		{"МОЛОКО 2,5% 1 Л", true},
		{"молоко", true},
		{"молоко ультрапастеризованe", true},
		{"молоко ультрапастеризоване 1л", false},
		{"вершки 10%", false},
		{"%%%", true},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.want, synonymKnown(product, tt.candidate))
		})
	}
}
