package testhelpers

import (
	"context"
	"time"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repository.Repository.
// Transaction runs the callback against the mock itself.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) SaveUser(ctx context.Context, user types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) EnsureUser(ctx context.Context, user types.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]types.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.User), args.Error(1)
}

func (m *MockRepository) SaveDish(ctx context.Context, dish types.DishData, imageURL string) (*types.Dish, error) {
	args := m.Called(ctx, dish, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Dish), args.Error(1)
}

func (m *MockRepository) AddStatistics(ctx context.Context, userID int64, dishID uint, like bool) error {
	args := m.Called(ctx, userID, dishID, like)
	return args.Error(0)
}

func (m *MockRepository) GetUserDishesByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]types.Dish, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Dish), args.Error(1)
}

func (m *MockRepository) GetUserDishHistory(ctx context.Context, userID int64, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) SaveRecommendation(ctx context.Context, userID int64, dishID uint, receipt string, servings int) error {
	args := m.Called(ctx, userID, dishID, receipt, servings)
	return args.Error(0)
}

func (m *MockRepository) ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recommendation), args.Error(1)
}

func (m *MockRepository) SaveNutrition(ctx context.Context, data types.NutritionData) (*types.Nutrition, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Nutrition), args.Error(1)
}

func (m *MockRepository) SetUserNutritionGoal(ctx context.Context, userID int64, nutritionID uint) error {
	args := m.Called(ctx, userID, nutritionID)
	return args.Error(0)
}

func (m *MockRepository) GetUserNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Nutrition), args.Error(1)
}

func (m *MockRepository) SaveUserProfile(ctx context.Context, userID int64, input types.NutritionGoalInput) error {
	args := m.Called(ctx, userID, input)
	return args.Error(0)
}

func (m *MockRepository) Transaction(ctx context.Context, fn func(repository.Repository) error) error {
	return fn(m)
}

// MockAIClient is a mock implementation of the GigaChat client
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) RecognizeMealByText(ctx context.Context, text string) (*types.DishData, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DishData), args.Error(1)
}

func (m *MockAIClient) RecognizeMealByImage(ctx context.Context, image []byte, mimeType string) (*types.DishData, error) {
	args := m.Called(ctx, image, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DishData), args.Error(1)
}

func (m *MockAIClient) RecognizeMealByTextFromAudio(ctx context.Context, text string) (*types.DishData, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DishData), args.Error(1)
}

func (m *MockAIClient) GetDishRecommendation(ctx context.Context, message string) (*types.DishRecommendation, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DishRecommendation), args.Error(1)
}

// MockSpeechService is a mock implementation of the speech recognizer
type MockSpeechService struct {
	mock.Mock
}

func (m *MockSpeechService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	args := m.Called(ctx, audio, mimeType)
	return args.String(0), args.Error(1)
}

// MockImageStorage is a mock implementation of the meal photo storage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) UploadMealPhoto(ctx context.Context, userID int64, data []byte, mimeType string) (string, error) {
	args := m.Called(ctx, userID, data, mimeType)
	return args.String(0), args.Error(1)
}
