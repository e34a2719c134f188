package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/types"
)

// errorWriter swallows plain-text error bodies so they can be re-sent as JSON
type errorWriter struct {
	gin.ResponseWriter
	body strings.Builder
}

func (w *errorWriter) Write(b []byte) (int, error) {
	if w.Status() >= http.StatusBadRequest && !isJSON(w.Header().Get("Content-Type")) {
		w.body.Write(b)
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *errorWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

// ErrorHandler recovers panics and turns plain-text error responses into
// JSON error bodies
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := &errorWriter{ResponseWriter: c.Writer}
		c.Writer = w

		defer func() {
			if err := recover(); err != nil {
				log.Error("panic while handling request",
					zap.Any("panic", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				c.Header("Content-Type", "application/json; charset=utf-8")
				c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error", Code: "internal"})
				c.Abort()
				return
			}

			if w.body.Len() > 0 {
				msg := strings.TrimSpace(w.body.String())
				if msg == "" {
					msg = http.StatusText(w.Status())
				}
				c.Header("Content-Type", "application/json; charset=utf-8")
				c.JSON(w.Status(), types.ErrorResponse{Error: msg})
			}
		}()

		c.Next()
	}
}
