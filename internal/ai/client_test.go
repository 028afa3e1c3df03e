package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteParsesFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}
	got, err := client.Complete(context.Background(), cfg, []ChatMessage{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if got != "hello there" {
		t.Errorf("expected %q, got %q", "hello there", got)
	}
}

func TestCompleteErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	if _, err := client.Complete(context.Background(), cfg, []ChatMessage{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error on 429 response")
	}
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Return vectors out of order; the client must restore input order
		// from the index field.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient()
	cfg := EmbeddingConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	vecs, err := client.EmbedBatch(context.Background(), cfg, []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed batch failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("vectors not restored to input order: %v", vecs)
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	client := NewClient()
	if _, err := client.Embed(context.Background(), EmbeddingConfig{}, "   "); err == nil {
		t.Error("expected error for empty embedding input")
	}
}

func TestRerankOrdersByRelevance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 2, "relevance_score": 0.41},
				{"index": 0, "relevance_score": 0.93},
				{"index": 1, "relevance_score": 0.77},
			},
		})
	}))
	defer srv.Close()

	client := NewClient()
	cfg := RerankConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	got, err := client.Rerank(context.Background(), cfg, "q", []string{"a", "b", "c"}, 2)
	if err != nil {
		t.Fatalf("rerank failed: %v", err)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("expected [0 1], got %v", got)
	}
}

func TestEmbeddingModelSplitsLargeBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) > embeddingBatchSize {
			t.Errorf("batch of %d exceeds provider limit", len(req.Input))
		}
		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]interface{}{"index": i, "embedding": []float32{float32(i)}}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer srv.Close()

	model := NewEmbeddingModel(NewClient(), EmbeddingConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	texts := make([]string, 23)
	for i := range texts {
		texts[i] = "text"
	}
	vecs, err := model.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed batch failed: %v", err)
	}
	if len(vecs) != 23 {
		t.Errorf("expected 23 vectors, got %d", len(vecs))
	}
	if calls != 3 {
		t.Errorf("expected 3 provider calls for 23 texts, got %d", calls)
	}
}
