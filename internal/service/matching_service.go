package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/pkg/llm"
	"invoice-intake-be/pkg/utils"
)

const stageMatching = "matching"

type IMatchingService interface {
	// Match assigns catalog products to the state's items in place and
	// returns the catalog snapshot it matched against.
	Match(ctx context.Context, state *entity.InvoiceState) (*entity.Catalog, error)
}

type matchingService struct {
	catalog ICatalogService
	llm     llm.LLMProvider
	logger  logger.ILogger
}

func NewMatchingService(catalog ICatalogService, provider llm.LLMProvider, log logger.ILogger) IMatchingService {
	return &matchingService{
		catalog: catalog,
		llm:     provider,
		logger:  log,
	}
}

func (s *matchingService) Match(ctx context.Context, state *entity.InvoiceState) (*entity.Catalog, error) {
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, apperror.New(apperror.KindConfiguration, stageMatching, constant.MsgEmptyCatalog, err)
	}
	if catalog.Len() == 0 {
		return nil, apperror.New(apperror.KindConfiguration, stageMatching, constant.MsgEmptyCatalog, fmt.Errorf("catalog: %w", apperror.ErrNotConfigured))
	}

	prompt, err := buildMatchingPrompt(state.Items, catalog)
	if err != nil {
		return nil, apperror.New(apperror.KindInternal, stageMatching, constant.MsgInternal, err)
	}

	raw, err := s.llm.Generate(ctx, prompt, llm.WithJSONOutput(), llm.WithTemperature(0.1))
	if err != nil {
		return nil, apperror.New(apperror.KindInference, stageMatching, constant.MsgMatchingInvalid, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, apperror.New(apperror.KindInference, stageMatching, constant.MsgMatchingEmpty, apperror.ErrEmptyResponse)
	}

	results, err := parseMatches(raw)
	if err != nil {
		return nil, err
	}
	if len(results) != len(state.Items) {
		return nil, apperror.New(apperror.KindInference, stageMatching, constant.MsgMatchingInvalid,
			fmt.Errorf("model returned %d items, expected %d", len(results), len(state.Items)))
	}

	matched := mergeMatches(state.Items, results, catalog)
	state.Status = entity.InvoiceStatusMatchingComplete

	s.logger.Info("MATCHING", "Items matched", map[string]interface{}{
		"session_id": state.SessionID,
		"items":      len(state.Items),
		"matched":    matched,
	})
	return catalog, nil
}

func buildMatchingPrompt(items []entity.LineItem, catalog *entity.Catalog) (string, error) {
	candidates := make([]dto.MatchCandidate, len(items))
	for i, item := range items {
		candidates[i] = dto.MatchCandidate{
			Name:           item.Name,
			NormalizedName: utils.NormalizeName(item.Name),
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			Sum:            item.Sum,
			ProductID:      item.ProductID,
			MatchStatus:    string(item.MatchStatus),
		}
	}

	entries := make([]dto.CatalogEntry, len(catalog.Products))
	for i, p := range catalog.Products {
		synonyms := make([]string, 0, len(p.Synonyms))
		for _, syn := range p.Synonyms {
			if n := utils.NormalizeName(syn); n != "" {
				synonyms = append(synonyms, n)
			}
		}
		entries[i] = dto.CatalogEntry{
			ProductID:          p.ProductID,
			Name:               p.Name,
			NormalizedName:     utils.NormalizeName(p.Name),
			NormalizedSynonyms: synonyms,
		}
	}

	itemsJSON, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	catalogJSON, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}
	return fmt.Sprintf(constant.MatchingPrompt, itemsJSON, catalogJSON), nil
}

func parseMatches(raw string) ([]dto.MatchedItem, error) {
	body := strings.TrimSpace(utils.StripNBSP(utils.ArraySpan(raw)))
	if !strings.HasPrefix(body, "[") {
		return nil, apperror.New(apperror.KindInference, stageMatching, constant.MsgMatchingUnexpected,
			fmt.Errorf("model output is not an array: %.200q", raw))
	}

	var results []dto.MatchedItem
	if err := json.Unmarshal([]byte(body), &results); err != nil {
		return nil, apperror.New(apperror.KindInference, stageMatching, constant.MsgMatchingInvalid,
			fmt.Errorf("decode matching output: %w", err))
	}
	return results, nil
}

// mergeMatches copies AI matches onto items. Ids absent from the catalog are
// ignored so every assigned product_id exists in the snapshot.
func mergeMatches(items []entity.LineItem, results []dto.MatchedItem, catalog *entity.Catalog) int {
	matched := 0
	for i, r := range results {
		id := string(r.ProductID)
		if entity.MatchStatus(r.MatchStatus) != entity.MatchStatusMatchedByAI || id == "" || !catalog.Contains(id) {
			continue
		}
		items[i].Assign(id, entity.MatchStatusMatchedByAI)
		matched++
	}
	return matched
}
