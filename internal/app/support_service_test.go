package app

import (
	"context"
	"errors"
	"testing"

	"carely/internal/model"
)

type memConfigStore struct {
	byPhone map[string]*model.WhatsAppConfig
}

func newMemConfigStore() *memConfigStore {
	return &memConfigStore{byPhone: make(map[string]*model.WhatsAppConfig)}
}

func (m *memConfigStore) Upsert(cfg *model.WhatsAppConfig) error {
	m.byPhone[cfg.PhoneNumberID] = cfg
	return nil
}

func (m *memConfigStore) GetByCompany(companyID uint) (*model.WhatsAppConfig, error) {
	for _, cfg := range m.byPhone {
		if cfg.CompanyID == companyID {
			return cfg, nil
		}
	}
	return nil, nil
}

func (m *memConfigStore) GetByPhoneNumberID(phoneNumberID string) (*model.WhatsAppConfig, error) {
	return m.byPhone[phoneNumberID], nil
}

func (m *memConfigStore) ExistsByVerifyToken(token string) (bool, error) {
	for _, cfg := range m.byPhone {
		if cfg.VerifyToken == token {
			return true, nil
		}
	}
	return false, nil
}

type recordingSender struct {
	to   string
	body string
	err  error
}

func (r *recordingSender) SendText(ctx context.Context, phoneNumberID, accessToken, to, body string) error {
	r.to = to
	r.body = body
	return r.err
}

type recordingPublisher struct {
	published []model.LiveMessage
}

func (r *recordingPublisher) Publish(ctx context.Context, msg model.LiveMessage) error {
	r.published = append(r.published, msg)
	return nil
}

func newTestSupportService(t *testing.T) (*SupportService, *recordingSender, *recordingPublisher) {
	t.Helper()
	configs := newMemConfigStore()
	configs.Upsert(&model.WhatsAppConfig{
		CompanyID:     1,
		PhoneNumberID: "555000",
		AccessToken:   "token-1",
		VerifyToken:   "verify-1",
	})

	conversations, _ := newTestConversationService(t, &scriptedLLM{answer: "We ship within five days."})
	classifier := NewClassifierService(
		&cannedLLM{response: `{"category": "Shipping", "sentiment_score": 0.1}`},
		billingAndShipping,
	)
	sender := &recordingSender{}
	publisher := &recordingPublisher{}
	return NewSupportService(configs, conversations, classifier, sender, publisher), sender, publisher
}

func TestHandleInboundAnswersAndPersists(t *testing.T) {
	svc, sender, publisher := newTestSupportService(t)

	err := svc.HandleInbound(context.Background(), InboundMessage{
		PhoneNumberID: "555000",
		CustomerPhone: "4799999999",
		CustomerName:  "Kari",
		Text:          "When will my order arrive?",
	})
	if err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	if sender.to != "4799999999" || sender.body != "We ship within five days." {
		t.Fatalf("reply = %q to %q", sender.body, sender.to)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(publisher.published))
	}
	user, assistant := publisher.published[0], publisher.published[1]
	if user.Role != "user" || user.Content != "When will my order arrive?" || user.Status != "received" {
		t.Fatalf("user message = %+v", user)
	}
	if user.Category == nil || *user.Category != "Shipping" {
		t.Fatalf("user category = %v, want Shipping", user.Category)
	}
	if assistant.Role != "assistant" || assistant.Content != sender.body || assistant.Status != "sent" {
		t.Fatalf("assistant message = %+v", assistant)
	}
	if assistant.Category != nil || assistant.SentimentScore != nil {
		t.Fatalf("assistant message should carry no classification: %+v", assistant)
	}
}

func TestHandleInboundUnknownPhoneNumber(t *testing.T) {
	svc, _, publisher := newTestSupportService(t)

	err := svc.HandleInbound(context.Background(), InboundMessage{
		PhoneNumberID: "000111",
		CustomerPhone: "4799999999",
		Text:          "hello",
	})
	if !errors.Is(err, ErrUnknownPhoneNumber) {
		t.Fatalf("err = %v, want ErrUnknownPhoneNumber", err)
	}
	if len(publisher.published) != 0 {
		t.Fatal("nothing should be published for an unroutable message")
	}
}

func TestHandleInboundSendFailureStillPersists(t *testing.T) {
	svc, sender, publisher := newTestSupportService(t)
	sender.err = errors.New("graph api down")

	err := svc.HandleInbound(context.Background(), InboundMessage{
		PhoneNumberID: "555000",
		CustomerPhone: "4798888888",
		Text:          "Is shipping free?",
	})
	if err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(publisher.published))
	}
}

func TestVerifyWebhook(t *testing.T) {
	svc, _, _ := newTestSupportService(t)

	ok, err := svc.VerifyWebhook(context.Background(), "verify-1")
	if err != nil || !ok {
		t.Fatalf("VerifyWebhook(known) = %v, %v; want true", ok, err)
	}
	ok, err = svc.VerifyWebhook(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("VerifyWebhook(unknown) = %v, %v; want false", ok, err)
	}
}
