package mocks

import (
	"context"
	"time"

	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockUsersService is a mock implementation of service.IUsersService
type MockUsersService struct {
	mock.Mock
}

var _ service.IUsersService = (*MockUsersService)(nil)

func (m *MockUsersService) SaveUser(ctx context.Context, user types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsersService) EnsureUser(ctx context.Context, user types.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersService) GetUsers(ctx context.Context) ([]types.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.User), args.Error(1)
}

func (m *MockUsersService) SetNutritionGoal(ctx context.Context, userID int64, input types.NutritionGoalInput) (*types.NutritionData, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.NutritionData), args.Error(1)
}

func (m *MockUsersService) GetNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Nutrition), args.Error(1)
}

// MockDishRecognitionService is a mock implementation of service.IDishRecognitionService
type MockDishRecognitionService struct {
	mock.Mock
}

var _ service.IDishRecognitionService = (*MockDishRecognitionService)(nil)

func (m *MockDishRecognitionService) RecognizeDishFromText(ctx context.Context, text string) (*types.Dish, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Dish), args.Error(1)
}

func (m *MockDishRecognitionService) RecognizeDishFromImage(ctx context.Context, userID int64, image []byte, mimeType string) (*types.Dish, error) {
	args := m.Called(ctx, userID, image, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Dish), args.Error(1)
}

func (m *MockDishRecognitionService) RecognizeDishFromAudio(ctx context.Context, audio []byte, mimeType string) (*types.Dish, error) {
	args := m.Called(ctx, audio, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Dish), args.Error(1)
}

// MockStatisticsService is a mock implementation of service.IStatisticsService
type MockStatisticsService struct {
	mock.Mock
}

var _ service.IStatisticsService = (*MockStatisticsService)(nil)

func (m *MockStatisticsService) GetStatistics(ctx context.Context, userID int64, from, to time.Time) (*types.CountedStatistics, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CountedStatistics), args.Error(1)
}

func (m *MockStatisticsService) GetDailyStatistics(ctx context.Context, userID int64) (*types.CountedStatistics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CountedStatistics), args.Error(1)
}

func (m *MockStatisticsService) GetMonthlyStatistics(ctx context.Context, userID int64) ([]types.CountedStatistics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CountedStatistics), args.Error(1)
}

func (m *MockStatisticsService) UpdateStatistics(ctx context.Context, userID int64, dishID uint) error {
	args := m.Called(ctx, userID, dishID)
	return args.Error(0)
}

// MockRecommendationService is a mock implementation of service.IRecommendationService
type MockRecommendationService struct {
	mock.Mock
}

var _ service.IRecommendationService = (*MockRecommendationService)(nil)

func (m *MockRecommendationService) GenerateRecommendation(ctx context.Context, userID int64) (*types.DishRecommendation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DishRecommendation), args.Error(1)
}

func (m *MockRecommendationService) ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recommendation), args.Error(1)
}

// MockReportService is a mock implementation of service.IReportService
type MockReportService struct {
	mock.Mock
}

var _ service.IReportService = (*MockReportService)(nil)

func (m *MockReportService) MonthlyReport(ctx context.Context, userID int64) (*service.MonthlyReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MonthlyReport), args.Error(1)
}

// MockAuthService is a mock implementation of service.IAuthService
type MockAuthService struct {
	mock.Mock
}

var _ service.IAuthService = (*MockAuthService)(nil)

func (m *MockAuthService) GenerateToken(userID int64, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}
