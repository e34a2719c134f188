package service

import (
	"context"
	"time"

	"github.com/kentavrex/topfit/internal/types"
)

// IAIClient estimates nutrition and generates dishes
type IAIClient interface {
	RecognizeMealByText(ctx context.Context, text string) (*types.DishData, error)
	RecognizeMealByImage(ctx context.Context, image []byte, mimeType string) (*types.DishData, error)
	RecognizeMealByTextFromAudio(ctx context.Context, text string) (*types.DishData, error)
	GetDishRecommendation(ctx context.Context, message string) (*types.DishRecommendation, error)
}

// ISpeechService turns voice messages into text
type ISpeechService interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// IImageStorage keeps meal photos
type IImageStorage interface {
	UploadMealPhoto(ctx context.Context, userID int64, data []byte, mimeType string) (string, error)
}

// IUsersService defines user and nutrition goal operations
type IUsersService interface {
	SaveUser(ctx context.Context, user types.User) error
	EnsureUser(ctx context.Context, user types.User) (bool, error)
	GetUsers(ctx context.Context) ([]types.User, error)
	SetNutritionGoal(ctx context.Context, userID int64, input types.NutritionGoalInput) (*types.NutritionData, error)
	GetNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error)
}

// IDishRecognitionService turns meal descriptions into stored dishes
type IDishRecognitionService interface {
	RecognizeDishFromText(ctx context.Context, text string) (*types.Dish, error)
	RecognizeDishFromImage(ctx context.Context, userID int64, image []byte, mimeType string) (*types.Dish, error)
	RecognizeDishFromAudio(ctx context.Context, audio []byte, mimeType string) (*types.Dish, error)
}

// IStatisticsService aggregates eaten nutrition
type IStatisticsService interface {
	GetStatistics(ctx context.Context, userID int64, from, to time.Time) (*types.CountedStatistics, error)
	GetDailyStatistics(ctx context.Context, userID int64) (*types.CountedStatistics, error)
	GetMonthlyStatistics(ctx context.Context, userID int64) ([]types.CountedStatistics, error)
	UpdateStatistics(ctx context.Context, userID int64, dishID uint) error
}

// IRecommendationService generates dishes within the remaining daily budget
type IRecommendationService interface {
	GenerateRecommendation(ctx context.Context, userID int64) (*types.DishRecommendation, error)
	ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error)
}

// IReportService builds exportable reports
type IReportService interface {
	MonthlyReport(ctx context.Context, userID int64) (*MonthlyReport, error)
}

// IAuthService issues and checks web API tokens
type IAuthService interface {
	GenerateToken(userID int64, username string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}
