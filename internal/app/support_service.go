package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"carely/internal/model"
)

var (
	ErrUnknownPhoneNumber = errors.New("no company configured for phone number")
	ErrConfigNotFound     = errors.New("whatsapp configuration not found")
)

// LiveMessagePublisher hands finished messages to the async persistence
// queue. Publishing must not block message handling for long.
type LiveMessagePublisher interface {
	Publish(ctx context.Context, msg model.LiveMessage) error
}

// ReplySender delivers the assistant's answer back to the customer.
type ReplySender interface {
	SendText(ctx context.Context, phoneNumberID, accessToken, to, body string) error
}

// WhatsAppConfigStore is the channel configuration persistence the service
// needs.
type WhatsAppConfigStore interface {
	Upsert(cfg *model.WhatsAppConfig) error
	GetByCompany(companyID uint) (*model.WhatsAppConfig, error)
	GetByPhoneNumberID(phoneNumberID string) (*model.WhatsAppConfig, error)
	ExistsByVerifyToken(token string) (bool, error)
}

// InboundMessage is one customer text arriving through the webhook.
type InboundMessage struct {
	PhoneNumberID string
	CustomerPhone string
	CustomerName  string
	Text          string
}

// SupportService drives the WhatsApp support channel: it routes inbound
// messages to the owning company, answers them, and queues both sides of the
// exchange for persistence.
type SupportService struct {
	configs       WhatsAppConfigStore
	conversations *ConversationService
	classifier    *ClassifierService
	sender        ReplySender
	publisher     LiveMessagePublisher
}

func NewSupportService(configs WhatsAppConfigStore, conversations *ConversationService, classifier *ClassifierService, sender ReplySender, publisher LiveMessagePublisher) *SupportService {
	return &SupportService{
		configs:       configs,
		conversations: conversations,
		classifier:    classifier,
		sender:        sender,
		publisher:     publisher,
	}
}

// SaveConfig stores or replaces a company's WhatsApp channel credentials.
func (s *SupportService) SaveConfig(ctx context.Context, companyID uint, phoneNumberID, accessToken, verifyToken string) error {
	if companyID == 0 || strings.TrimSpace(phoneNumberID) == "" || strings.TrimSpace(accessToken) == "" || strings.TrimSpace(verifyToken) == "" {
		return ErrInvalidInput
	}
	cfg := &model.WhatsAppConfig{
		CompanyID:     companyID,
		PhoneNumberID: strings.TrimSpace(phoneNumberID),
		AccessToken:   strings.TrimSpace(accessToken),
		VerifyToken:   strings.TrimSpace(verifyToken),
	}
	if err := s.configs.Upsert(cfg); err != nil {
		return fmt.Errorf("save whatsapp config: %w", err)
	}
	return nil
}

// Config returns the company's channel configuration.
func (s *SupportService) Config(ctx context.Context, companyID uint) (*model.WhatsAppConfig, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	cfg, err := s.configs.GetByCompany(companyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

// VerifyWebhook checks a webhook subscription challenge token against the
// stored configurations.
func (s *SupportService) VerifyWebhook(ctx context.Context, verifyToken string) (bool, error) {
	if verifyToken == "" {
		return false, nil
	}
	return s.configs.ExistsByVerifyToken(verifyToken)
}

// HandleInbound processes one customer message end to end: answer it through
// the retrieval pipeline, classify it, send the reply, and queue both
// messages for persistence. Reply delivery failures are logged, not fatal,
// so the webhook can still acknowledge receipt.
func (s *SupportService) HandleInbound(ctx context.Context, in InboundMessage) error {
	if strings.TrimSpace(in.Text) == "" || in.PhoneNumberID == "" || in.CustomerPhone == "" {
		return ErrInvalidInput
	}

	cfg, err := s.configs.GetByPhoneNumberID(in.PhoneNumberID)
	if err != nil {
		return fmt.Errorf("look up whatsapp config: %w", err)
	}
	if cfg == nil {
		return ErrUnknownPhoneNumber
	}
	companyID := cfg.CompanyID

	result, err := s.conversations.Ask(ctx, companyID, in.Text)
	if err != nil {
		return fmt.Errorf("answer message: %w", err)
	}
	cls := s.classifier.Classify(ctx, companyID, in.Text)

	if err := s.sender.SendText(ctx, cfg.PhoneNumberID, cfg.AccessToken, in.CustomerPhone, result.Answer); err != nil {
		log.Printf("company %d: send whatsapp reply to %s: %v", companyID, in.CustomerPhone, err)
	}

	now := time.Now()
	category := cls.Category
	sentiment := cls.SentimentScore
	userMsg := model.LiveMessage{
		CompanyID:      companyID,
		CustomerPhone:  in.CustomerPhone,
		CustomerName:   in.CustomerName,
		Role:           "user",
		Content:        in.Text,
		Status:         "received",
		Category:       &category,
		SentimentScore: &sentiment,
		CreatedAt:      now,
	}
	assistantMsg := model.LiveMessage{
		CompanyID:     companyID,
		CustomerPhone: in.CustomerPhone,
		CustomerName:  in.CustomerName,
		Role:          "assistant",
		Content:       result.Answer,
		Status:        "sent",
		CreatedAt:     now,
	}
	if err := s.publisher.Publish(ctx, userMsg); err != nil {
		log.Printf("company %d: queue user message: %v", companyID, err)
	}
	if err := s.publisher.Publish(ctx, assistantMsg); err != nil {
		log.Printf("company %d: queue assistant message: %v", companyID, err)
	}
	return nil
}
