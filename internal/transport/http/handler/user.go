package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopher-accounts/internal/app"
	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/transport/http/middleware"
	"gopher-accounts/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
	log         logging.Logger
}

// UpdateUserRequest fields are optional; omitted ones keep their value.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=128"`
	Password *string `json:"password" binding:"omitempty,min=1,max=72"`
}

func NewUserHandler(userService *app.UserService, log logging.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "list users failed", err)
		return
	}
	response.OK(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid user id")
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "get user failed")
		return
	}
	response.OK(c, user)
}

// Update and Delete act on the token's identity. The :id path segment is
// accepted for route shape only and never selects the target row.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, detailInvalidPayload)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, app.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err, "update user failed")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	msg, err := h.userService.Delete(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "delete user failed")
		return
	}
	response.OK(c, gin.H{"notification": msg})
}

func (h *UserHandler) writeError(c *gin.Context, err error, logMsg string) {
	var (
		notFound *app.NotFoundError
		conflict *app.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		response.Error(c, http.StatusNotFound, notFoundDetail(notFound.ID))
	case errors.As(err, &conflict):
		response.Error(c, http.StatusBadRequest, conflictDetail(conflict))
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusUnprocessableEntity, detailInvalidPayload)
	default:
		h.internalError(c, logMsg, err)
	}
}

func (h *UserHandler) internalError(c *gin.Context, msg string, err error) {
	middleware.RequestLog(c, h.log).Error(c.Request.Context(), msg, "error", err)
	response.Error(c, http.StatusInternalServerError, detailInternal)
}

func notFoundDetail(id uint) string {
	return fmt.Sprintf("User with id `%d` does not exist!", id)
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	u, err := strconv.ParseUint(c.Param(key), 10, 64)
	return uint(u), err
}
