package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/types"
)

// MonthlyDays is the length of the monthly report
const MonthlyDays = 30

// StatisticsService sums the nutrition users ate. Days are cut in loc.
type StatisticsService struct {
	repo repository.Repository
	loc  *time.Location
	now  func() time.Time
}

var _ IStatisticsService = (*StatisticsService)(nil)

func NewStatisticsService(repo repository.Repository, loc *time.Location) *StatisticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatisticsService{repo: repo, loc: loc, now: time.Now}
}

// Today returns the start of the current day
func (s *StatisticsService) Today() time.Time {
	return startOfDay(s.now(), s.loc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// GetStatistics sums dishes eaten from the start of from's day through the
// end of to's day
func (s *StatisticsService) GetStatistics(ctx context.Context, userID int64, from, to time.Time) (*types.CountedStatistics, error) {
	start := startOfDay(from, s.loc)
	end := startOfDay(to, s.loc).AddDate(0, 0, 1)
	if !end.After(start) {
		return nil, fmt.Errorf("invalid period: %s is after %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	dishes, err := s.repo.GetUserDishesByPeriod(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	stats := &types.CountedStatistics{UserID: userID, ValidFrom: start, ValidTo: end}
	for _, d := range dishes {
		stats.NutritionData = stats.NutritionData.Add(d.NutritionData)
	}
	stats.NutritionData = stats.NutritionData.Round()
	return stats, nil
}

func (s *StatisticsService) GetDailyStatistics(ctx context.Context, userID int64) (*types.CountedStatistics, error) {
	today := s.Today()
	return s.GetStatistics(ctx, userID, today, today)
}

// GetMonthlyStatistics returns one entry per day for the last 30 days,
// oldest first and ending today
func (s *StatisticsService) GetMonthlyStatistics(ctx context.Context, userID int64) ([]types.CountedStatistics, error) {
	today := s.Today()
	days := make([]types.CountedStatistics, 0, MonthlyDays)
	for i := MonthlyDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		stats, err := s.GetStatistics(ctx, userID, day, day)
		if err != nil {
			return nil, err
		}
		days = append(days, *stats)
	}
	return days, nil
}

// UpdateStatistics records that the user ate the dish
func (s *StatisticsService) UpdateStatistics(ctx context.Context, userID int64, dishID uint) error {
	return s.repo.AddStatistics(ctx, userID, dishID, true)
}
