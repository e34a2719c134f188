package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/testhelpers"
	"github.com/kentavrex/topfit/internal/testhelpers/mocks"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRemainingBudget(t *testing.T) {
	goal := types.NutritionData{Protein: 100, Fat: 60, Carbohydrates: 250, Calories: 2000}

	t.Run("subtracts eaten", func(t *testing.T) {
		eaten := types.NutritionData{Protein: 40, Fat: 20, Carbohydrates: 100, Calories: 800}
		assert.Equal(t, types.NutritionData{Protein: 60, Fat: 40, Carbohydrates: 150, Calories: 1200},
			service.RemainingBudget(goal, eaten))
	})

	t.Run("never below floor", func(t *testing.T) {
		eaten := types.NutritionData{Protein: 150, Fat: 90, Carbohydrates: 300, Calories: 2500}
		assert.Equal(t, types.NutritionData{Protein: 2, Fat: 0, Carbohydrates: 10, Calories: 300},
			service.RemainingBudget(goal, eaten))
	})
}

func TestRecommendationPrompt(t *testing.T) {
	budget := types.NutritionData{Protein: 60, Fat: 40, Carbohydrates: 150, Calories: 1200}

	withHistory := service.RecommendationPrompt(budget, []string{"Борщ", "Плов"})
	assert.Equal(t, "Примерный (не точный) желаемый кбжу: белки 60.0 г, жиры 40.0 г, углеводы 150.0 г, калории 1200.0 ккал. "+
		"История прошлых блюд: Борщ, Плов", withHistory)

	noHistory := service.RecommendationPrompt(budget, nil)
	assert.Contains(t, noHistory, "Истории прошлых блюд нет, просто порекомендуй что-нибудь вкусное.")
}

func TestRecommendationService_GenerateRecommendation(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	ai := new(testhelpers.MockAIClient)
	stats := new(mocks.MockStatisticsService)
	svc := service.NewRecommendationService(repo, ai, stats, zap.NewNop())

	goal := types.NutritionData{Protein: 100, Fat: 60, Carbohydrates: 250, Calories: 2000}
	eaten := types.NutritionData{Protein: 40, Fat: 20, Carbohydrates: 100, Calories: 800}
	rec := &types.DishRecommendation{
		DishData: types.DishData{
			Name:          "Курица с рисом",
			NutritionData: types.NutritionData{Protein: 90, Fat: 30, Carbohydrates: 180, Calories: 1400},
		},
		Receipt:       "Отварить рис, обжарить курицу",
		ServingsCount: 2,
	}
	expectedPrompt := service.RecommendationPrompt(service.RemainingBudget(goal, eaten), []string{"Борщ"})

	repo.On("GetUserNutritionGoal", ctx, int64(1)).Return(&types.Nutrition{ID: 1, NutritionData: goal}, nil)
	repo.On("GetUserDishHistory", ctx, int64(1), repository.DefaultHistoryLimit).Return([]string{"Борщ"}, nil)
	stats.On("GetDailyStatistics", ctx, int64(1)).Return(&types.CountedStatistics{UserID: 1, NutritionData: eaten}, nil)
	ai.On("GetDishRecommendation", ctx, expectedPrompt).Return(rec, nil)
	repo.On("SaveDish", ctx, rec.DishData, "").Return(&types.Dish{ID: 11, DishData: rec.DishData}, nil)
	repo.On("SaveRecommendation", ctx, int64(1), uint(11), rec.Receipt, 2).Return(nil)

	got, err := svc.GenerateRecommendation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, 700.0, got.PerServing().Calories)

	repo.AssertExpectations(t)
	ai.AssertExpectations(t)
}

func TestRecommendationService_GoalNotSet(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	ai := new(testhelpers.MockAIClient)
	svc := service.NewRecommendationService(repo, ai, new(mocks.MockStatisticsService), zap.NewNop())

	repo.On("GetUserNutritionGoal", ctx, int64(1)).Return(nil, nil)

	_, err := svc.GenerateRecommendation(ctx, 1)
	assert.ErrorIs(t, err, service.ErrNutritionGoalNotSet)
	ai.AssertNotCalled(t, "GetDishRecommendation", mock.Anything, mock.Anything)
}

func TestRecommendationService_AIFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	ai := new(testhelpers.MockAIClient)
	stats := new(mocks.MockStatisticsService)
	svc := service.NewRecommendationService(repo, ai, stats, zap.NewNop())

	repo.On("GetUserNutritionGoal", ctx, int64(1)).Return(&types.Nutrition{NutritionData: types.NutritionData{Calories: 2000}}, nil)
	repo.On("GetUserDishHistory", ctx, int64(1), mock.Anything).Return([]string{}, nil)
	stats.On("GetDailyStatistics", ctx, int64(1)).Return(&types.CountedStatistics{}, nil)
	ai.On("GetDishRecommendation", ctx, mock.Anything).Return(nil, service.ErrMaxRetries)

	_, err := svc.GenerateRecommendation(ctx, 1)
	assert.True(t, errors.Is(err, service.ErrMaxRetries))
	repo.AssertNotCalled(t, "SaveDish", mock.Anything, mock.Anything, mock.Anything)
}
