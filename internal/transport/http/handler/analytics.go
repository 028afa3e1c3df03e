package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/transport/http/response"
)

type AnalyticsHandler struct {
	analyticsService *app.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *app.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	stats, err := h.analyticsService.Dashboard(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "dashboard stats failed")
		return
	}
	response.OK(c, stats)
}

func (h *AnalyticsHandler) Messages(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			limit = v
		}
	}

	messages, err := h.analyticsService.RecentMessages(c.Request.Context(), companyID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list messages failed")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}
