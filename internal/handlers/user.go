package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/dto"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListTeamMembers returns the users a lead can assign tasks to
func (h *UserHandler) ListTeamMembers(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	users, err := h.userService.ListTeamMembers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}
