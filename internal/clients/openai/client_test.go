package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/artograph/artograph-backend/internal/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestCompleteReturnsAssistantMessage(t *testing.T) {
	var calls int
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got=%q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"title":"Plan"}`}},
			},
		})
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	content, err := c.Complete(context.Background(), "generate something")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"title":"Plan"}` {
		t.Fatalf("content: got=%q", content)
	}
	if calls != 1 {
		t.Fatalf("provider calls: want=1 got=%d", calls)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "generate something" {
		t.Fatalf("request messages: got=%+v", gotReq.Messages)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("request model: got=%q", gotReq.Model)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Complete(context.Background(), "prompt")
	if err == nil || err.Error() != "No response from AI" {
		t.Fatalf("empty choices: got=%v", err)
	}
}

func TestCompleteUnauthorized(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{APIKey: "sk-bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "invalid API key") {
		t.Fatalf("401 mapping: got=%v", err)
	}
	// One attempt only.
	if calls != 1 {
		t.Fatalf("provider calls: want=1 got=%d", calls)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(testLogger(), Config{}); err == nil {
		t.Fatalf("missing key must fail")
	}
}
