package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/transport/http/middleware"
	"carely/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=128"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Register(app.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrCompanyExists):
			response.Error(c, http.StatusBadRequest, response.CodeCompanyExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "register failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"company": gin.H{
			"id":    result.Company.ID,
			"name":  result.Company.Name,
			"email": result.Company.Email,
		},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"company": gin.H{
			"id":    result.Company.ID,
			"name":  result.Company.Name,
			"email": result.Company.Email,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	company, err := h.authService.GetCompany(companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch current company failed")
		return
	}
	if company == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "company not found")
		return
	}

	response.OK(c, gin.H{
		"id":    company.ID,
		"name":  company.Name,
		"email": company.Email,
	})
}

func getCompanyIDFromContext(c *gin.Context) (uint, bool) {
	idAny, exists := c.Get(middleware.ContextCompanyIDKey)
	if !exists {
		return 0, false
	}
	id, ok := idAny.(uint)
	return id, ok
}
