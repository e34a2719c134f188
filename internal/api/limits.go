package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/middleware"
	"github.com/kentavrex/topfit/internal/types"
)

// QuotaCounter reports what is left of a per-user budget without using it
type QuotaCounter interface {
	Remaining(ctx context.Context, key string) (int, time.Time, error)
}

// LimitsHandler shows the caller's remaining AI budgets
type LimitsHandler struct {
	limits map[string]QuotaCounter
	log    *zap.Logger
}

func NewLimitsHandler(limits map[string]QuotaCounter, log *zap.Logger) *LimitsHandler {
	return &LimitsHandler{limits: limits, log: log}
}

func (h *LimitsHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/me/limits", h.GetLimits)
}

func (h *LimitsHandler) GetLimits(c *gin.Context) {
	userID := middleware.UserID(c)
	key := strconv.FormatInt(userID, 10)

	resp := types.LimitsResponse{Limits: make(map[string]types.LimitStatus, len(h.limits))}
	for name, counter := range h.limits {
		remaining, reset, err := counter.Remaining(c.Request.Context(), key)
		if err != nil {
			h.log.Error("failed to read limit", zap.String("limit", name), zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to read limits", Code: "internal"})
			return
		}
		status := types.LimitStatus{Remaining: remaining}
		if !reset.IsZero() {
			status.ResetAt = &reset
		}
		resp.Limits[name] = status
	}
	c.JSON(http.StatusOK, resp)
}
