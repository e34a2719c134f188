package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
)

type AdminHandler struct {
	users service.IUsersService
	log   *zap.Logger
}

func NewAdminHandler(users service.IUsersService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, log: log}
}

func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/admin/users", h.ListUsers)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.GetUsers(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list users", Code: "internal"})
		return
	}
	if users == nil {
		users = []types.User{}
	}
	c.JSON(http.StatusOK, types.UsersResponse{Users: users, Total: len(users)})
}
