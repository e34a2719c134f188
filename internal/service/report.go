package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kentavrex/topfit/internal/types"
	"github.com/xuri/excelize/v2"
)

// MonthlyReport is the last 30 days of a user's nutrition
type MonthlyReport struct {
	UserID  int64                     `json:"user_id"`
	Days    []types.CountedStatistics `json:"days"`
	Total   types.NutritionData       `json:"total"`
	Average types.NutritionData       `json:"average"`
	// Goal is nil when the user never set one
	Goal *types.NutritionData `json:"goal,omitempty"`
}

// ReportService builds monthly reports
type ReportService struct {
	stats IStatisticsService
	users IUsersService
}

var _ IReportService = (*ReportService)(nil)

func NewReportService(stats IStatisticsService, users IUsersService) *ReportService {
	return &ReportService{stats: stats, users: users}
}

// MonthlyReport averages over days with at least one logged dish
func (s *ReportService) MonthlyReport(ctx context.Context, userID int64) (*MonthlyReport, error) {
	days, err := s.stats.GetMonthlyStatistics(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{UserID: userID, Days: days}
	active := 0
	for _, d := range days {
		report.Total = report.Total.Add(d.NutritionData)
		if d.Calories > 0 || d.Protein > 0 || d.Fat > 0 || d.Carbohydrates > 0 {
			active++
		}
	}
	report.Total = report.Total.Round()
	if active > 0 {
		report.Average = report.Total.PerServing(active).Round()
	}

	goal, err := s.users.GetNutritionGoal(ctx, userID)
	switch {
	case err == nil:
		report.Goal = &goal.NutritionData
	case !errors.Is(err, ErrNutritionGoalNotSet):
		return nil, err
	}

	return report, nil
}

// WriteXLSX renders the report as a single-sheet workbook
func (r *MonthlyReport) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := []interface{}{"Дата", "Белки, г", "Жиры, г", "Углеводы, г", "Калории, ккал"}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	row := 2
	for _, d := range r.Days {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{d.ValidFrom.Format(time.DateOnly), d.Protein, d.Fat, d.Carbohydrates, d.Calories}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
		row++
	}

	summary := []struct {
		title string
		data  *types.NutritionData
	}{
		{"Итого", &r.Total},
		{"В среднем за день", &r.Average},
		{"Дневная цель", r.Goal},
	}
	row++
	for _, s := range summary {
		if s.data == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{s.title, s.data.Protein, s.data.Fat, s.data.Carbohydrates, s.data.Calories}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
