package service

import (
	"context"
	"testing"
	"time"

	"github.com/kentavrex/topfit/internal/testhelpers"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func moscow(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

func dish(name string, p, f, c, kcal float64) types.Dish {
	return types.Dish{DishData: types.DishData{
		Name:          name,
		NutritionData: types.NutritionData{Protein: p, Fat: f, Carbohydrates: c, Calories: kcal},
	}}
}

func TestStatisticsService_GetStatistics(t *testing.T) {
	ctx := context.Background()
	loc := moscow(t)
	repo := new(testhelpers.MockRepository)
	svc := NewStatisticsService(repo, loc)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	repo.On("GetUserDishesByPeriod", ctx, int64(1), day, day.AddDate(0, 0, 1)).
		Return([]types.Dish{dish("a", 10, 5, 20, 200), dish("b", 2.25, 1, 3, 50.05)}, nil)

	// a time late in the day still selects the whole day
	stats, err := svc.GetStatistics(ctx, 1, day.Add(23*time.Hour), day.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UserID)
	assert.Equal(t, day, stats.ValidFrom)
	assert.Equal(t, day.AddDate(0, 0, 1), stats.ValidTo)
	assert.Equal(t, types.NutritionData{Protein: 12.3, Fat: 6, Carbohydrates: 23, Calories: 250.1}, stats.NutritionData)
}

func TestStatisticsService_GetStatisticsRange(t *testing.T) {
	ctx := context.Background()
	loc := moscow(t)
	repo := new(testhelpers.MockRepository)
	svc := NewStatisticsService(repo, loc)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	to := time.Date(2024, 3, 3, 0, 0, 0, 0, loc)
	repo.On("GetUserDishesByPeriod", ctx, int64(1), from, time.Date(2024, 3, 4, 0, 0, 0, 0, loc)).
		Return([]types.Dish{}, nil)

	stats, err := svc.GetStatistics(ctx, 1, from, to)
	require.NoError(t, err)
	assert.Equal(t, types.NutritionData{}, stats.NutritionData)

	_, err = svc.GetStatistics(ctx, 1, to.AddDate(0, 0, 2), from)
	assert.Error(t, err)
}

func TestStatisticsService_GetDailyStatistics(t *testing.T) {
	ctx := context.Background()
	loc := moscow(t)
	repo := new(testhelpers.MockRepository)
	svc := NewStatisticsService(repo, loc)

	// 22:30 UTC is already the next day in Moscow
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC) }
	start := time.Date(2024, 3, 16, 0, 0, 0, 0, loc)
	repo.On("GetUserDishesByPeriod", ctx, int64(1), start, start.AddDate(0, 0, 1)).
		Return([]types.Dish{dish("a", 1, 1, 1, 10)}, nil)

	stats, err := svc.GetDailyStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stats.Calories)
	repo.AssertExpectations(t)
}

func TestStatisticsService_GetMonthlyStatistics(t *testing.T) {
	ctx := context.Background()
	loc := moscow(t)
	repo := new(testhelpers.MockRepository)
	svc := NewStatisticsService(repo, loc)

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	svc.now = func() time.Time { return today.Add(10 * time.Hour) }

	repo.On("GetUserDishesByPeriod", ctx, int64(1), today, today.AddDate(0, 0, 1)).
		Return([]types.Dish{dish("a", 1, 2, 3, 100)}, nil)
	repo.On("GetUserDishesByPeriod", ctx, int64(1), mock.Anything, mock.Anything).
		Return([]types.Dish{}, nil)

	days, err := svc.GetMonthlyStatistics(ctx, 1)
	require.NoError(t, err)
	require.Len(t, days, MonthlyDays)

	assert.Equal(t, today.AddDate(0, 0, -29), days[0].ValidFrom)
	assert.Equal(t, today, days[29].ValidFrom)
	assert.Equal(t, 100.0, days[29].Calories)
	for i := 1; i < len(days); i++ {
		assert.Equal(t, days[i-1].ValidTo, days[i].ValidFrom)
	}
	repo.AssertNumberOfCalls(t, "GetUserDishesByPeriod", MonthlyDays)
}

func TestStatisticsService_UpdateStatistics(t *testing.T) {
	ctx := context.Background()
	repo := new(testhelpers.MockRepository)
	svc := NewStatisticsService(repo, nil)

	repo.On("AddStatistics", ctx, int64(4), uint(9), true).Return(nil)
	require.NoError(t, svc.UpdateStatistics(ctx, 4, 9))
	repo.AssertExpectations(t)
}
