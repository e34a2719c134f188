package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/middleware"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
)

const (
	defaultRecommendationsLimit = 10
	maxRecommendationsLimit     = 50
	xlsxContentType             = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// NutritionHandler serves the authenticated user's own data
type NutritionHandler struct {
	users           service.IUsersService
	stats           service.IStatisticsService
	reports         service.IReportService
	recommendations service.IRecommendationService
	loc             *time.Location
	log             *zap.Logger
}

func NewNutritionHandler(
	users service.IUsersService,
	stats service.IStatisticsService,
	reports service.IReportService,
	recommendations service.IRecommendationService,
	loc *time.Location,
	log *zap.Logger,
) *NutritionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &NutritionHandler{
		users:           users,
		stats:           stats,
		reports:         reports,
		recommendations: recommendations,
		loc:             loc,
		log:             log,
	}
}

// RegisterRoutes mounts the handlers under an authenticated group
func (h *NutritionHandler) RegisterRoutes(router gin.IRouter) {
	me := router.Group("/me")
	{
		me.GET("/goal", h.GetGoal)
		me.GET("/statistics", h.GetStatistics)
		me.GET("/statistics/monthly", h.GetMonthlyStatistics)
		me.GET("/statistics/monthly.xlsx", h.ExportMonthlyStatistics)
		me.GET("/recommendations", h.ListRecommendations)
	}
}

func (h *NutritionHandler) internalError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, zap.Int64("user_id", middleware.UserID(c)), zap.Error(err))
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: msg, Code: "internal"})
}

func (h *NutritionHandler) GetGoal(c *gin.Context) {
	goal, err := h.users.GetNutritionGoal(c.Request.Context(), middleware.UserID(c))
	if errors.Is(err, service.ErrNutritionGoalNotSet) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "nutrition goal is not set", Code: "goal_not_set"})
		return
	}
	if err != nil {
		h.internalError(c, "failed to get nutrition goal", err)
		return
	}
	c.JSON(http.StatusOK, types.GoalResponse{Goal: goal.NutritionData})
}

// parseDay reads a YYYY-MM-DD query parameter, defaulting to today
func (h *NutritionHandler) parseDay(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Now().In(h.loc), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", key)
	}
	return day, nil
}

// GetStatistics sums the nutrition eaten between the from and to days,
// both inclusive
func (h *NutritionHandler) GetStatistics(c *gin.Context) {
	from, err := h.parseDay(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	to, err := h.parseDay(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "to must not be before from", Code: "bad_request"})
		return
	}

	stats, err := h.stats.GetStatistics(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		h.internalError(c, "failed to get statistics", err)
		return
	}
	c.JSON(http.StatusOK, types.StatisticsResponse{From: stats.ValidFrom, To: stats.ValidTo, Nutrition: stats.NutritionData})
}

func (h *NutritionHandler) GetMonthlyStatistics(c *gin.Context) {
	days, err := h.stats.GetMonthlyStatistics(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, "failed to get monthly statistics", err)
		return
	}
	c.JSON(http.StatusOK, types.MonthlyStatisticsResponse{Days: days})
}

func (h *NutritionHandler) ExportMonthlyStatistics(c *gin.Context) {
	report, err := h.reports.MonthlyReport(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, "failed to build monthly report", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf); err != nil {
		h.internalError(c, "failed to render monthly report", err)
		return
	}

	name := fmt.Sprintf("topfit-%s.xlsx", time.Now().In(h.loc).Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *NutritionHandler) ListRecommendations(c *gin.Context) {
	limit := defaultRecommendationsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecommendationsLimit {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: fmt.Sprintf("limit must be between 1 and %d", maxRecommendationsLimit),
				Code:  "bad_request",
			})
			return
		}
		limit = n
	}

	recs, err := h.recommendations.ListRecommendations(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		h.internalError(c, "failed to list recommendations", err)
		return
	}
	if recs == nil {
		recs = []types.Recommendation{}
	}
	c.JSON(http.StatusOK, types.RecommendationsResponse{Recommendations: recs})
}
