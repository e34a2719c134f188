// Package repository is the data-access layer. Every call runs in its own
// database session unless it is made through Transaction.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kentavrex/topfit/internal/types"
)

// DefaultHistoryLimit is how many past dishes feed a recommendation prompt
const DefaultHistoryLimit = 50

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository persists users, dishes, nutrition records, statistics and
// recommendation history
type Repository interface {
	SaveUser(ctx context.Context, user types.User) error
	EnsureUser(ctx context.Context, user types.User) (bool, error)
	GetUser(ctx context.Context, userID int64) (*types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)

	SaveDish(ctx context.Context, dish types.DishData, imageURL string) (*types.Dish, error)
	AddStatistics(ctx context.Context, userID int64, dishID uint, like bool) error
	GetUserDishesByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]types.Dish, error)
	GetUserDishHistory(ctx context.Context, userID int64, limit int) ([]string, error)

	SaveRecommendation(ctx context.Context, userID int64, dishID uint, receipt string, servings int) error
	ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error)

	SaveNutrition(ctx context.Context, data types.NutritionData) (*types.Nutrition, error)
	SetUserNutritionGoal(ctx context.Context, userID int64, nutritionID uint) error
	GetUserNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error)
	SaveUserProfile(ctx context.Context, userID int64, input types.NutritionGoalInput) error

	Transaction(ctx context.Context, fn func(Repository) error) error
}
