package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendText(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"messages": [{"id": "wamid.1"}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if err := c.SendText(context.Background(), "555000", "tok", "4799999999", "hello there"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if gotPath != "/555000/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody["messaging_product"] != "whatsapp" || gotBody["to"] != "4799999999" {
		t.Fatalf("body = %v", gotBody)
	}
	text, _ := gotBody["text"].(map[string]any)
	if text["body"] != "hello there" {
		t.Fatalf("text = %v", text)
	}
}

func TestSendTextAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "Invalid OAuth access token"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	err := c.SendText(context.Background(), "555000", "bad", "4799999999", "hi")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestSendTextValidatesFields(t *testing.T) {
	c := NewClient("")
	if err := c.SendText(context.Background(), "", "tok", "to", "body"); err == nil {
		t.Fatal("expected error for missing phone number id")
	}
}
