package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/dto"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/pkg/imageprep"
	"invoice-intake-be/pkg/llm"
	"invoice-intake-be/pkg/telegram"
	"invoice-intake-be/pkg/utils"
)

const (
	stageRecognition = "recognition"

	// allowed gap between the item sums and the declared total, in currency units
	reconciliationTolerance = 1.0
)

var errMissingPhoto = errors.New("message carries no photo")

type RecognitionOptions struct {
	MaxPhotoBytes int64
	EnhanceImage  bool
}

type IRecognitionService interface {
	// Recognize extracts and verifies the invoice in msg's photo. The
	// returned state is not persisted yet.
	Recognize(ctx context.Context, msg *telegram.Message) (*entity.InvoiceState, error)
}

type recognitionService struct {
	messenger Messenger
	llm       llm.LLMProvider
	opts      RecognitionOptions
	logger    logger.ILogger
}

func NewRecognitionService(messenger Messenger, provider llm.LLMProvider, opts RecognitionOptions, log logger.ILogger) IRecognitionService {
	return &recognitionService{
		messenger: messenger,
		llm:       provider,
		opts:      opts,
		logger:    log,
	}
}

func (s *recognitionService) Recognize(ctx context.Context, msg *telegram.Message) (*entity.InvoiceState, error) {
	if len(msg.Photo) == 0 {
		return nil, apperror.New(apperror.KindInput, stageRecognition, constant.MsgPhotoFailed, errMissingPhoto)
	}

	photo := selectPhoto(msg.Photo, s.opts.MaxPhotoBytes)
	data, err := s.messenger.DownloadFile(ctx, photo.FileID)
	if err != nil {
		return nil, apperror.New(apperror.KindInput, stageRecognition, constant.MsgPhotoFailed, fmt.Errorf("download photo %s: %w", photo.FileID, err))
	}

	mimeType := "image/jpeg"
	if s.opts.EnhanceImage {
		if enhanced, mt, err := imageprep.Enhance(data, imageprep.DefaultOptions()); err != nil {
			s.logger.Warn("RECOGNITION", "Image enhancement failed, using original", map[string]interface{}{"error": err.Error()})
		} else {
			data, mimeType = enhanced, mt
		}
	}

	s.logger.Info("RECOGNITION", "Sending invoice photo to inference", map[string]interface{}{
		"chat_id": msg.Chat.ID,
		"bytes":   len(data),
	})

	raw, err := s.llm.Generate(ctx, constant.RecognitionPrompt,
		llm.WithImage(mimeType, data),
		llm.WithJSONOutput(),
		llm.WithTemperature(0.1),
	)
	if err != nil {
		return nil, apperror.New(apperror.KindInference, stageRecognition, constant.MsgRecognitionFailed, err)
	}

	recognized, err := parseRecognition(raw)
	if err != nil {
		return nil, apperror.New(apperror.KindInference, stageRecognition, constant.MsgRecognitionFailed, err)
	}

	state := &entity.InvoiceState{
		ChatID:        msg.Chat.ID,
		Status:        entity.InvoiceStatusRecognizing,
		Supplier:      strings.TrimSpace(recognized.Supplier),
		DeclaredTotal: recognized.TotalAmount.Float64(),
		Items:         make([]entity.LineItem, 0, len(recognized.Items)),
	}
	if state.Supplier == "" {
		state.Supplier = entity.UnknownSupplier
	}
	for _, item := range recognized.Items {
		state.Items = append(state.Items, entity.NewLineItem(
			strings.TrimSpace(item.Name),
			item.Quantity.Float64(),
			strings.TrimSpace(item.Unit),
			item.Sum.Float64(),
		))
	}

	if err := verifyTotals(state); err != nil {
		return nil, err
	}

	state.Status = entity.InvoiceStatusRecognitionComplete
	s.logger.Info("RECOGNITION", "Invoice recognised", map[string]interface{}{
		"chat_id":  msg.Chat.ID,
		"supplier": state.Supplier,
		"items":    len(state.Items),
		"total":    state.DeclaredTotal,
	})
	return state, nil
}

// selectPhoto picks the largest rendition under maxBytes, else the largest.
// Telegram lists renditions from smallest to largest; unknown sizes pass.
func selectPhoto(photos []telegram.PhotoSize, maxBytes int64) telegram.PhotoSize {
	for i := len(photos) - 1; i >= 0; i-- {
		if maxBytes <= 0 || photos[i].FileSize <= maxBytes {
			return photos[i]
		}
	}
	return photos[len(photos)-1]
}

func parseRecognition(raw string) (*dto.RecognizedInvoice, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperror.ErrEmptyResponse
	}

	var out dto.RecognizedInvoice
	if err := json.Unmarshal([]byte(utils.StripNBSP(utils.ObjectSpan(raw))), &out); err != nil {
		return nil, fmt.Errorf("decode recognition output: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, errors.New("recognition output has no items")
	}
	return &out, nil
}

func verifyTotals(state *entity.InvoiceState) error {
	itemsTotal := state.ItemsTotal()
	if utils.WithinTolerance(itemsTotal, state.DeclaredTotal, reconciliationTolerance) {
		return nil
	}

	return apperror.New(
		apperror.KindVerification,
		stageRecognition,
		fmt.Sprintf(constant.MsgVerificationError, utils.FormatMoney(itemsTotal), utils.FormatMoney(state.DeclaredTotal)),
		fmt.Errorf("items total %.2f differs from declared %.2f", itemsTotal, state.DeclaredTotal),
	)
}
