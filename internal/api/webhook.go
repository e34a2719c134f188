package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/types"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateSink accepts Telegram updates delivered by webhook
type UpdateSink interface {
	Enqueue(ctx context.Context, upd tgbotapi.Update) error
}

type WebhookHandler struct {
	sink   UpdateSink
	secret string
	log    *zap.Logger
}

func NewWebhookHandler(sink UpdateSink, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{sink: sink, secret: secret, log: log}
}

func (h *WebhookHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/telegram/webhook", h.Receive)
}

// Receive queues the update and answers at once so Telegram does not retry
// while the AI works
func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid secret token", Code: "unauthorized"})
			return
		}
	}

	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid update", Code: "bad_request"})
		return
	}

	if err := h.sink.Enqueue(c.Request.Context(), upd); err != nil {
		h.log.Warn("failed to queue update", zap.Int("update_id", upd.UpdateID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "update queue is full", Code: "unavailable"})
		return
	}
	c.Status(http.StatusOK)
}
