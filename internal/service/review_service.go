package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/pkg/telegram"
)

const stageReview = "review"

var correctionPattern = regexp.MustCompile(`(\d+)\s*-\s*([^\s,;]+)`)

// Correction is one "<position> - <id>" pair from a reply.
type Correction struct {
	Raw       string
	Position  int
	ProductID string
}

type CorrectionResult struct {
	Applied         []Correction
	UnknownPosition []Correction
	UnknownProduct  []Correction
	LearnedSynonyms int
}

func (r CorrectionResult) HasSkipped() bool {
	return len(r.UnknownPosition) > 0 || len(r.UnknownProduct) > 0
}

type IReviewService interface {
	// Present sends the review screen and rekeys the session onto it.
	Present(ctx context.Context, state *entity.InvoiceState, catalog *entity.Catalog) error
	// RequestCorrections asks for a reply with corrections.
	RequestCorrections(ctx context.Context, state *entity.InvoiceState) error
	// ApplyCorrections mutates state items. Text without any pair fails
	// with an input error and leaves state untouched.
	ApplyCorrections(ctx context.Context, state *entity.InvoiceState, catalog *entity.Catalog, text string) (*CorrectionResult, error)
}

type reviewService struct {
	messenger Messenger
	store     contract.SessionStore
	catalog   ICatalogService
	logger    logger.ILogger
}

func NewReviewService(messenger Messenger, store contract.SessionStore, catalog ICatalogService, log logger.ILogger) IReviewService {
	return &reviewService{
		messenger: messenger,
		store:     store,
		catalog:   catalog,
		logger:    log,
	}
}

func (s *reviewService) Present(ctx context.Context, state *entity.InvoiceState, catalog *entity.Catalog) error {
	keyboard := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		telegram.Row(
			telegram.Button(constant.BtnConfirmReview, dto.CallbackData{Action: dto.ActionConfirmReview, SessionID: state.SessionID}.Encode()),
			telegram.Button(constant.BtnEditErrors, dto.CallbackData{Action: dto.ActionEditErrors, SessionID: state.SessionID}.Encode()),
		),
	}}

	if err := emitAndRekey(ctx, s.messenger, s.store, state, RenderReview(state, catalog), telegram.WithKeyboard(keyboard)); err != nil {
		return apperror.New(apperror.KindInternal, stageReview, constant.MsgInternal, err)
	}
	return nil
}

func (s *reviewService) RequestCorrections(ctx context.Context, state *entity.InvoiceState) error {
	state.Status = entity.InvoiceStatusAwaitingCorrection
	if err := emitAndRekey(ctx, s.messenger, s.store, state, constant.MsgCorrectionPrompt); err != nil {
		return apperror.New(apperror.KindInternal, stageReview, constant.MsgInternal, err)
	}
	return nil
}

func (s *reviewService) ApplyCorrections(ctx context.Context, state *entity.InvoiceState, catalog *entity.Catalog, text string) (*CorrectionResult, error) {
	corrections := ParseCorrections(text)
	if len(corrections) == 0 {
		return nil, apperror.New(apperror.KindInput, stageReview, constant.MsgCorrectionFormatError,
			fmt.Errorf("no corrections in %q", text))
	}

	result := &CorrectionResult{}
	for _, c := range corrections {
		idx := c.Position - 1
		switch {
		case idx < 0 || idx >= len(state.Items):
			result.UnknownPosition = append(result.UnknownPosition, c)
			continue
		case !catalog.Contains(c.ProductID):
			result.UnknownProduct = append(result.UnknownProduct, c)
			continue
		}

		state.Items[idx].Assign(c.ProductID, entity.MatchStatusMatchedByUser)
		result.Applied = append(result.Applied, c)

		learned, err := s.catalog.LearnSynonym(ctx, c.ProductID, state.Items[idx].Name)
		if err != nil {
			// the correction itself stands even if learning fails
			s.logger.Warn("REVIEW", "Failed to learn synonym", map[string]interface{}{
				"product_id": c.ProductID,
				"error":      err.Error(),
			})
			continue
		}
		if learned {
			result.LearnedSynonyms++
		}
	}

	state.Status = entity.InvoiceStatusMatchingComplete
	s.logger.Info("REVIEW", "Corrections applied", map[string]interface{}{
		"session_id":       state.SessionID,
		"applied":          len(result.Applied),
		"unknown_position": len(result.UnknownPosition),
		"unknown_product":  len(result.UnknownProduct),
		"learned":          result.LearnedSynonyms,
	})
	return result, nil
}

// ParseCorrections extracts "<position> - <id>" pairs separated by
// whitespace, commas or semicolons. A trailing "." on the id is dropped.
func ParseCorrections(text string) []Correction {
	var out []Correction
	for _, m := range correctionPattern.FindAllStringSubmatch(text, -1) {
		pos, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		id := strings.TrimRight(m[2], ",;.")
		if id == "" {
			continue
		}
		out = append(out, Correction{Raw: strings.TrimRight(m[0], ",;."), Position: pos, ProductID: id})
	}
	return out
}

func RenderReview(state *entity.InvoiceState, catalog *entity.Catalog) string {
	var b strings.Builder
	b.WriteString(constant.MsgReviewHeader)

	for i, item := range state.Items {
		fmt.Fprintf(&b, "<b>%d.</b> ", i+1)
		name := html.EscapeString(item.Name)

		if !item.IsMatched() {
			fmt.Fprintf(&b, "%s <b>Не знайдено:</b>\n   • <b>З накладної:</b> <code>%s</code>\n\n", constant.GlyphUnmatched, name)
			continue
		}

		label := "Зіставлено"
		glyph := constant.GlyphMatchedByAI
		if item.MatchStatus == entity.MatchStatusMatchedByUser {
			label = "Вказано вручну"
			glyph = constant.GlyphMatchedByUser
		}

		productName := "ПОМИЛКА: ID не знайдено"
		if p, ok := catalog.Find(item.ProductIDValue()); ok {
			productName = p.Name
		}
		fmt.Fprintf(&b, "%s <b>%s:</b>\n   • <b>З накладної:</b> <code>%s</code>\n   • <b>З базою:</b> <code>%s</code> (ID: %s)\n\n",
			glyph, label, name, html.EscapeString(productName), html.EscapeString(item.ProductIDValue()))
	}

	b.WriteString(constant.MsgReviewFooter)
	return b.String()
}

// RenderSkipped lists corrections that were not applied.
func RenderSkipped(result *CorrectionResult) string {
	lines := make([]string, 0, len(result.UnknownPosition)+len(result.UnknownProduct))
	for _, c := range result.UnknownPosition {
		lines = append(lines, fmt.Sprintf(constant.MsgSkippedPosition, html.EscapeString(c.Raw)))
	}
	for _, c := range result.UnknownProduct {
		lines = append(lines, fmt.Sprintf(constant.MsgSkippedProduct, html.EscapeString(c.Raw)))
	}
	return fmt.Sprintf(constant.MsgCorrectionSkipped, strings.Join(lines, "\n"))
}
