package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/specification"
	"invoice-intake-be/internal/repository/unitofwork"
	"invoice-intake-be/pkg/utils"

	"github.com/agnivade/levenshtein"
	"github.com/patrickmn/go-cache"
)

const (
	catalogCacheKey = "catalog"
	catalogCacheTTL = 5 * time.Minute

	// near-duplicate check only applies to names at least this long
	fuzzyDedupMinRunes = 6
)

type ICatalogService interface {
	GetCatalog(ctx context.Context) (*entity.Catalog, error)
	// GetUserAccess returns nil, nil for unknown users.
	GetUserAccess(ctx context.Context, telegramUserID int64) (*entity.UserAccess, error)
	// LearnSynonym records text as a synonym of the product. It reports
	// false when the text is already known or the product does not exist.
	LearnSynonym(ctx context.Context, productID, text string) (bool, error)
}

type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
	logger     logger.ILogger
}

func NewCatalogService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ICatalogService {
	return &catalogService{
		uowFactory: uowFactory,
		cache:      cache.New(catalogCacheTTL, 2*catalogCacheTTL),
		logger:     log,
	}
}

func (s *catalogService) GetCatalog(ctx context.Context) (*entity.Catalog, error) {
	if cached, found := s.cache.Get(catalogCacheKey); found {
		return cached.(*entity.Catalog), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	products, err := uow.ProductRepository().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	list := make([]entity.Product, 0, len(products))
	for _, p := range products {
		list = append(list, *p)
	}
	catalog := entity.NewCatalog(list)

	s.cache.Set(catalogCacheKey, catalog, cache.DefaultExpiration)
	s.logger.Debug("CATALOG", "Catalog snapshot loaded", map[string]interface{}{"products": catalog.Len()})
	return catalog, nil
}

func (s *catalogService) GetUserAccess(ctx context.Context, telegramUserID int64) (*entity.UserAccess, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	access, err := uow.UserAccessRepository().FindOne(ctx, specification.ByTelegramUserID{UserID: telegramUserID})
	if err != nil {
		return nil, fmt.Errorf("load user access %d: %w", telegramUserID, err)
	}
	return access, nil
}

func (s *catalogService) LearnSynonym(ctx context.Context, productID, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer uow.Rollback()

	product, err := uow.ProductRepository().FindOne(ctx, specification.ByProductID{ProductID: productID})
	if err != nil {
		return false, fmt.Errorf("find product %s: %w", productID, err)
	}
	if product == nil || synonymKnown(product, text) {
		return false, nil
	}

	now := time.Now()
	product.Synonyms = append(product.Synonyms, text)
	product.UpdatedAt = &now
	if err := uow.ProductRepository().Update(ctx, product); err != nil {
		return false, fmt.Errorf("update product %s: %w", productID, err)
	}
	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("commit synonym: %w", err)
	}

	s.cache.Delete(catalogCacheKey)
	s.logger.Info("CATALOG", "Synonym added", map[string]interface{}{
		"product_id": productID,
		"synonym":    text,
	})
	return true, nil
}

// synonymKnown compares normalized forms: equal, contained in an existing
// name, or one edit away from one.
func synonymKnown(product *entity.Product, candidate string) bool {
	norm := utils.NormalizeName(candidate)
	if norm == "" {
		return true
	}

	known := append([]string{product.Name}, product.Synonyms...)
	for _, k := range known {
		existing := utils.NormalizeName(k)
		if existing == "" {
			continue
		}
		if existing == norm || strings.Contains(existing, norm) {
			return true
		}
		if utf8.RuneCountInString(norm) >= fuzzyDedupMinRunes &&
			utf8.RuneCountInString(existing) >= fuzzyDedupMinRunes &&
			levenshtein.ComputeDistance(existing, norm) <= 1 {
			return true
		}
	}
	return false
}
