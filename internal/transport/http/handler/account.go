package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/transport/http/response"
)

type AccountHandler struct {
	documentService     *app.DocumentService
	conversationService *app.ConversationService
	analyticsService    *app.AnalyticsService
}

func NewAccountHandler(documentService *app.DocumentService, conversationService *app.ConversationService, analyticsService *app.AnalyticsService) *AccountHandler {
	return &AccountHandler{
		documentService:     documentService,
		conversationService: conversationService,
		analyticsService:    analyticsService,
	}
}

// DeleteData wipes everything the platform holds for the company: documents,
// chunks, the vector index, conversation history, and the message log. The
// account itself stays.
func (h *AccountHandler) DeleteData(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	ctx := c.Request.Context()

	if err := h.documentService.Purge(ctx, companyID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "purge knowledge base failed")
		return
	}
	if err := h.conversationService.ClearHistory(ctx, companyID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear history failed")
		return
	}
	if err := h.analyticsService.PurgeCompany(ctx, companyID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "purge messages failed")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}
