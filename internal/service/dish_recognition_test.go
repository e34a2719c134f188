package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/testhelpers"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDishRecognitionService_FromText(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	ai := new(testhelpers.MockAIClient)
	svc := service.NewDishRecognitionService(repo, ai, nil, nil, zap.NewNop())

	ai.On("RecognizeMealByText", ctx, "гречка с курицей").Return(&types.DishData{
		Name:          " Гречка с курицей ",
		NutritionData: types.NutritionData{Protein: 30.04, Fat: 8, Carbohydrates: 50, Calories: 400.26},
	}, nil)
	stored := types.DishData{
		Name:          "Гречка с курицей",
		NutritionData: types.NutritionData{Protein: 30, Fat: 8, Carbohydrates: 50, Calories: 400.3},
	}
	repo.On("SaveDish", ctx, stored, "").Return(&types.Dish{ID: 1, DishData: stored}, nil)

	dish, err := svc.RecognizeDishFromText(ctx, "гречка с курицей")
	require.NoError(t, err)
	assert.Equal(t, uint(1), dish.ID)
	repo.AssertExpectations(t)
}

func TestDishRecognitionService_FromTextFails(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	ai := new(testhelpers.MockAIClient)
	svc := service.NewDishRecognitionService(repo, ai, nil, nil, zap.NewNop())

	ai.On("RecognizeMealByText", ctx, "???").Return(nil, service.ErrMaxRetries)

	_, err := svc.RecognizeDishFromText(ctx, "???")
	assert.ErrorIs(t, err, service.ErrMaxRetries)
	repo.AssertNotCalled(t, "SaveDish", mock.Anything, mock.Anything, mock.Anything)
}

func TestDishRecognitionService_FromImage(t *testing.T) {
	ctx := context.Background()
	photo := []byte("jpeg")
	data := types.DishData{Name: "Салат", NutritionData: types.NutritionData{Calories: 120}}

	t.Run("stores photo url", func(t *testing.T) {
		repo := new(testhelpers.MockRepository)
		ai := new(testhelpers.MockAIClient)
		images := new(testhelpers.MockImageStorage)
		svc := service.NewDishRecognitionService(repo, ai, nil, images, zap.NewNop())

		ai.On("RecognizeMealByImage", mock.Anything, photo, "image/jpeg").Return(&data, nil)
		images.On("UploadMealPhoto", mock.Anything, int64(3), photo, "image/jpeg").Return("https://s3/meal.jpg", nil)
		repo.On("SaveDish", ctx, data, "https://s3/meal.jpg").Return(&types.Dish{ID: 2, ImageURL: "https://s3/meal.jpg", DishData: data}, nil)

		dish, err := svc.RecognizeDishFromImage(ctx, 3, photo, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "https://s3/meal.jpg", dish.ImageURL)
	})

	t.Run("upload failure keeps the dish", func(t *testing.T) {
		repo := new(testhelpers.MockRepository)
		ai := new(testhelpers.MockAIClient)
		images := new(testhelpers.MockImageStorage)
		svc := service.NewDishRecognitionService(repo, ai, nil, images, zap.NewNop())

		ai.On("RecognizeMealByImage", mock.Anything, photo, "image/jpeg").Return(&data, nil)
		images.On("UploadMealPhoto", mock.Anything, int64(3), photo, "image/jpeg").Return("", errors.New("s3 down"))
		repo.On("SaveDish", ctx, data, "").Return(&types.Dish{ID: 2, DishData: data}, nil)

		dish, err := svc.RecognizeDishFromImage(ctx, 3, photo, "image/jpeg")
		require.NoError(t, err)
		assert.Empty(t, dish.ImageURL)
	})

	t.Run("recognition failure", func(t *testing.T) {
		repo := new(testhelpers.MockRepository)
		ai := new(testhelpers.MockAIClient)
		svc := service.NewDishRecognitionService(repo, ai, nil, nil, zap.NewNop())

		ai.On("RecognizeMealByImage", mock.Anything, photo, "image/jpeg").Return(nil, service.ErrMaxRetries)

		_, err := svc.RecognizeDishFromImage(ctx, 3, photo, "image/jpeg")
		assert.ErrorIs(t, err, service.ErrMaxRetries)
	})
}

func TestDishRecognitionService_FromAudio(t *testing.T) {
	ctx := context.Background()
	voice := []byte("ogg")

	t.Run("transcribes then recognizes", func(t *testing.T) {
		repo := new(testhelpers.MockRepository)
		ai := new(testhelpers.MockAIClient)
		speech := new(testhelpers.MockSpeechService)
		svc := service.NewDishRecognitionService(repo, ai, speech, nil, zap.NewNop())

		data := types.DishData{Name: "Борщ", NutritionData: types.NutritionData{Calories: 150}}
		speech.On("Transcribe", ctx, voice, "audio/ogg").Return("тарелка борща", nil)
		ai.On("RecognizeMealByTextFromAudio", ctx, "тарелка борща").Return(&data, nil)
		repo.On("SaveDish", ctx, data, "").Return(&types.Dish{ID: 4, DishData: data}, nil)

		dish, err := svc.RecognizeDishFromAudio(ctx, voice, "audio/ogg")
		require.NoError(t, err)
		assert.Equal(t, "Борщ", dish.Name)
	})

	t.Run("empty transcript", func(t *testing.T) {
		ai := new(testhelpers.MockAIClient)
		speech := new(testhelpers.MockSpeechService)
		svc := service.NewDishRecognitionService(new(testhelpers.MockRepository), ai, speech, nil, zap.NewNop())

		speech.On("Transcribe", ctx, voice, "audio/ogg").Return("", service.ErrEmptyTranscript)

		_, err := svc.RecognizeDishFromAudio(ctx, voice, "audio/ogg")
		assert.ErrorIs(t, err, service.ErrEmptyTranscript)
	})

	t.Run("voice disabled", func(t *testing.T) {
		svc := service.NewDishRecognitionService(new(testhelpers.MockRepository), new(testhelpers.MockAIClient), nil, nil, zap.NewNop())
		_, err := svc.RecognizeDishFromAudio(ctx, voice, "audio/ogg")
		assert.ErrorIs(t, err, service.ErrVoiceDisabled)
	})
}
