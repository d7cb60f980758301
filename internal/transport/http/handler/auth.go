package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"gopher-accounts/internal/app"
	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/transport/http/middleware"
	"gopher-accounts/internal/transport/http/response"
)

const (
	detailInvalidPayload = "invalid request payload"
	detailBadCredentials = "Signin failed! Recheck your email and password."
	detailInternal       = "internal server error"
)

type AuthHandler struct {
	authService *app.AuthService
	log         logging.Logger
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,max=72"`
}

// SigninRequest is an OAuth2 password form; username holds the email.
type SigninRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, detailInvalidPayload)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var conflict *app.ConflictError
		switch {
		case errors.As(err, &conflict):
			response.Error(c, http.StatusBadRequest, conflictDetail(conflict))
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusUnprocessableEntity, detailInvalidPayload)
		default:
			middleware.RequestLog(c, h.log).Error(c.Request.Context(), "signup failed", "error", err)
			response.Error(c, http.StatusInternalServerError, detailInternal)
		}
		return
	}

	response.JSON(c, http.StatusCreated, user.Public())
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, detailInvalidPayload)
		return
	}

	result, err := h.authService.Signin(c.Request.Context(), app.SigninInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredential) {
			response.Error(c, http.StatusBadRequest, detailBadCredentials)
			return
		}
		middleware.RequestLog(c, h.log).Error(c.Request.Context(), "signin failed", "error", err)
		response.Error(c, http.StatusInternalServerError, detailInternal)
		return
	}

	response.OK(c, result)
}

func conflictDetail(conflict *app.ConflictError) string {
	if conflict.Field == "email" {
		return fmt.Sprintf("The email `%s` is already registered! Choose another one.", conflict.Value)
	}
	return fmt.Sprintf("The username `%s` is already taken! Choose another one.", conflict.Value)
}
