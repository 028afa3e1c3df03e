package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/transport/http/response"
)

type ConversationHandler struct {
	conversationService *app.ConversationService
}

type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

func NewConversationHandler(conversationService *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) Ask(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.conversationService.Ask(c.Request.Context(), companyID, req.Question)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "answer question failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *ConversationHandler) History(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	history, err := h.conversationService.History(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load history failed")
		return
	}
	response.OK(c, gin.H{"history": history})
}

func (h *ConversationHandler) Clear(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.conversationService.ClearHistory(c.Request.Context(), companyID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear history failed")
		return
	}
	response.OK(c, gin.H{"cleared": true})
}

func (h *ConversationHandler) Summary(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	summary, err := h.conversationService.Summary(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "conversation summary failed")
		return
	}
	response.OK(c, summary)
}
