package service

import (
	"context"
	"strings"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DishRecognitionService turns text, photos and voice into stored dishes
type DishRecognitionService struct {
	repo   repository.Repository
	ai     IAIClient
	speech ISpeechService
	images IImageStorage
	log    *zap.Logger
}

var _ IDishRecognitionService = (*DishRecognitionService)(nil)

// NewDishRecognitionService wires the recognizer. speech and images may be
// nil: voice input is then rejected and photos are not kept.
func NewDishRecognitionService(repo repository.Repository, ai IAIClient, speech ISpeechService, images IImageStorage, log *zap.Logger) *DishRecognitionService {
	return &DishRecognitionService{
		repo:   repo,
		ai:     ai,
		speech: speech,
		images: images,
		log:    log.Named("recognition"),
	}
}

func (s *DishRecognitionService) save(ctx context.Context, dish *types.DishData, imageURL string) (*types.Dish, error) {
	dish.Name = strings.TrimSpace(dish.Name)
	dish.NutritionData = dish.NutritionData.Round()
	return s.repo.SaveDish(ctx, *dish, imageURL)
}

func (s *DishRecognitionService) RecognizeDishFromText(ctx context.Context, text string) (*types.Dish, error) {
	dish, err := s.ai.RecognizeMealByText(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, dish, "")
}

// RecognizeDishFromImage recognizes the photo and stores it at the same
// time. A failed upload is logged and the dish is kept without an image.
func (s *DishRecognitionService) RecognizeDishFromImage(ctx context.Context, userID int64, image []byte, mimeType string) (*types.Dish, error) {
	var (
		dish     *types.DishData
		imageURL string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dish, err = s.ai.RecognizeMealByImage(gctx, image, mimeType)
		return err
	})
	if s.images != nil {
		g.Go(func() error {
			url, err := s.images.UploadMealPhoto(gctx, userID, image, mimeType)
			if err != nil {
				s.log.Warn("failed to store meal photo", zap.Int64("user_id", userID), zap.Error(err))
				return nil
			}
			imageURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.save(ctx, dish, imageURL)
}

func (s *DishRecognitionService) RecognizeDishFromAudio(ctx context.Context, audio []byte, mimeType string) (*types.Dish, error) {
	if s.speech == nil {
		return nil, ErrVoiceDisabled
	}
	text, err := s.speech.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, err
	}
	s.log.Debug("voice transcribed", zap.String("text", text))

	dish, err := s.ai.RecognizeMealByTextFromAudio(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, dish, "")
}
