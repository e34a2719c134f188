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

func TestCalculateNutritionGoal(t *testing.T) {
	t.Run("male, average activity, support", func(t *testing.T) {
		goal, err := service.CalculateNutritionGoal(types.NutritionGoalInput{
			Height: 180, Weight: 80, Age: 30, IsMale: true,
			Activity: types.ActivityAverage, Goal: types.GoalSupport,
		})
		require.NoError(t, err)

		// BMR = 800 + 1125 - 150 + 5 = 1780; * 1.55 = 2759
		assert.Equal(t, 2759.0, goal.Calories)
		assert.Equal(t, 206.9, goal.Protein)
		assert.Equal(t, 92.0, goal.Fat)
		assert.Equal(t, 275.9, goal.Carbohydrates)
	})

	t.Run("female, minimum activity, lose", func(t *testing.T) {
		goal, err := service.CalculateNutritionGoal(types.NutritionGoalInput{
			Height: 165, Weight: 60, Age: 25, IsMale: false,
			Activity: types.ActivityMinimum, Goal: types.GoalLose,
		})
		require.NoError(t, err)

		// BMR = 600 + 1031.25 - 125 - 161 = 1345.25; * 1.2 * 0.85 = 1372.155
		assert.Equal(t, 1372.2, goal.Calories)
		assert.Equal(t, 102.9, goal.Protein)
		assert.Equal(t, 45.7, goal.Fat)
		assert.Equal(t, 137.2, goal.Carbohydrates)
	})

	t.Run("gain multiplies by 1.15", func(t *testing.T) {
		input := types.NutritionGoalInput{Height: 170, Weight: 70, Age: 40, IsMale: true, Activity: types.ActivityMaximum}
		input.Goal = types.GoalSupport
		support, err := service.CalculateNutritionGoal(input)
		require.NoError(t, err)
		input.Goal = types.GoalGain
		gain, err := service.CalculateNutritionGoal(input)
		require.NoError(t, err)
		assert.InDelta(t, support.Calories*1.15, gain.Calories, 0.1)
	})

	t.Run("invalid activity", func(t *testing.T) {
		_, err := service.CalculateNutritionGoal(types.NutritionGoalInput{Activity: 7, Goal: types.GoalLose})
		assert.Error(t, err)
	})

	t.Run("invalid goal", func(t *testing.T) {
		_, err := service.CalculateNutritionGoal(types.NutritionGoalInput{Activity: types.ActivityMinimum})
		assert.Error(t, err)
	})
}

func TestUsersService_SetNutritionGoal(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	svc := service.NewUsersService(repo, zap.NewNop())

	input := types.NutritionGoalInput{
		Height: 180, Weight: 80, Age: 30, IsMale: true,
		Activity: types.ActivityAverage, Goal: types.GoalSupport,
	}
	expected, err := service.CalculateNutritionGoal(input)
	require.NoError(t, err)

	repo.On("SaveNutrition", ctx, expected).Return(&types.Nutrition{ID: 7, NutritionData: expected}, nil)
	repo.On("SetUserNutritionGoal", ctx, int64(1), uint(7)).Return(nil)
	repo.On("SaveUserProfile", ctx, int64(1), input).Return(nil)

	goal, err := svc.SetNutritionGoal(ctx, 1, input)
	require.NoError(t, err)
	assert.Equal(t, expected, *goal)
	repo.AssertExpectations(t)
}

func TestUsersService_SetNutritionGoalFails(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	svc := service.NewUsersService(repo, zap.NewNop())

	repo.On("SaveNutrition", ctx, mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.SetNutritionGoal(ctx, 1, types.NutritionGoalInput{
		Height: 180, Weight: 80, Age: 30, Activity: types.ActivityAverage, Goal: types.GoalSupport,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	repo.AssertNotCalled(t, "SetUserNutritionGoal", mock.Anything, mock.Anything, mock.Anything)
}

func TestUsersService_GetNutritionGoal(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	svc := service.NewUsersService(repo, zap.NewNop())

	repo.On("GetUserNutritionGoal", ctx, int64(1)).Return(nil, nil)
	repo.On("GetUserNutritionGoal", ctx, int64(2)).Return(&types.Nutrition{ID: 3, NutritionData: types.NutritionData{Calories: 2000}}, nil)

	_, err := svc.GetNutritionGoal(ctx, 1)
	assert.ErrorIs(t, err, service.ErrNutritionGoalNotSet)

	goal, err := svc.GetNutritionGoal(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, goal.Calories)
}

func TestUsersService_EnsureUser(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	svc := service.NewUsersService(repo, zap.NewNop())

	user := types.User{TelegramID: 5, FirstName: "Olga"}
	repo.On("EnsureUser", ctx, user).Return(true, nil).Once()
	repo.On("EnsureUser", ctx, user).Return(false, nil).Once()

	created, err := svc.EnsureUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureUser(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)
}
