package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/transport/http/response"
)

type WhatsAppHandler struct {
	supportService *app.SupportService
}

type SaveWhatsAppConfigRequest struct {
	PhoneNumberID string `json:"phone_number_id" binding:"required,max=64"`
	AccessToken   string `json:"access_token" binding:"required,max=512"`
	VerifyToken   string `json:"verify_token" binding:"required,max=128"`
}

func NewWhatsAppHandler(supportService *app.SupportService) *WhatsAppHandler {
	return &WhatsAppHandler{supportService: supportService}
}

func (h *WhatsAppHandler) SaveConfig(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SaveWhatsAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.supportService.SaveConfig(c.Request.Context(), companyID, req.PhoneNumberID, req.AccessToken, req.VerifyToken); err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save whatsapp config failed")
		}
		return
	}
	response.OK(c, gin.H{"saved": true})
}

func (h *WhatsAppHandler) GetConfig(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	cfg, err := h.supportService.Config(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, app.ErrConfigNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeConfigNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load whatsapp config failed")
		}
		return
	}
	// tokens are write-only through the API
	response.OK(c, gin.H{"phone_number_id": cfg.PhoneNumberID})
}

// VerifyWebhook answers Meta's subscription handshake.
func (h *WhatsAppHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" {
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	ok, err := h.supportService.VerifyWebhook(c.Request.Context(), token)
	if err != nil || !ok {
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, challenge)
}

// webhookPayload is the subset of Meta's webhook body the channel needs.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Webhook handles inbound customer messages. It always acknowledges with 200
// so Meta does not retry deliveries we have already seen; processing errors
// are logged.
func (h *WhatsAppHandler) Webhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if payload.Object != "whatsapp_business_account" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			customerName := "Unknown"
			if len(value.Contacts) > 0 && value.Contacts[0].Profile.Name != "" {
				customerName = value.Contacts[0].Profile.Name
			}
			for _, msg := range value.Messages {
				if msg.Type != "text" {
					continue
				}
				err := h.supportService.HandleInbound(c.Request.Context(), app.InboundMessage{
					PhoneNumberID: value.Metadata.PhoneNumberID,
					CustomerPhone: msg.From,
					CustomerName:  customerName,
					Text:          msg.Text.Body,
				})
				if err != nil {
					log.Printf("whatsapp webhook: handle message from %s: %v", msg.From, err)
				}
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
