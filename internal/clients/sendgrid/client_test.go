package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/artograph/artograph-backend/internal/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestConfigFromEnvThreeWaySwitch(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "placeholder")

	// Unset entirely: delivery disabled.
	os.Unsetenv("SENDGRID_API_KEY")
	if got := ConfigFromEnv(testLogger()); got.Mode != ModeDisabled {
		t.Fatalf("unset key: want=disabled got=%q", got.Mode)
	}

	// Present but empty: mock delivery.
	t.Setenv("SENDGRID_API_KEY", "")
	if got := ConfigFromEnv(testLogger()); got.Mode != ModeMock {
		t.Fatalf("empty key: want=mock got=%q", got.Mode)
	}

	// Non-empty: live delivery.
	t.Setenv("SENDGRID_API_KEY", "SG.real-key")
	got := ConfigFromEnv(testLogger())
	if got.Mode != ModeLive {
		t.Fatalf("real key: want=live got=%q", got.Mode)
	}
	if got.APIKey != "SG.real-key" {
		t.Fatalf("api key not carried: got=%q", got.APIKey)
	}
}

func TestSendDisabled(t *testing.T) {
	c, err := New(testLogger(), Config{Mode: ModeDisabled})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Send(context.Background(), SendEmailRequest{})
	if err != ErrNotConfigured {
		t.Fatalf("disabled send: want ErrNotConfigured got=%v", err)
	}
}

func TestSendMock(t *testing.T) {
	c, err := New(testLogger(), Config{Mode: ModeMock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := c.Send(context.Background(), SendEmailRequest{})
	if err != nil {
		t.Fatalf("mock send: %v", err)
	}
	if result.MessageID != "mock" {
		t.Fatalf("mock message id: got=%q", result.MessageID)
	}
	if result.StatusCode != http.StatusAccepted {
		t.Fatalf("mock status: got=%d", result.StatusCode)
	}
}

func TestSendLiveSingleAttempt(t *testing.T) {
	var calls int
	var gotAuth string
	var payload mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("X-Message-Id", "sg-abc")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{
		Mode:             ModeLive,
		APIKey:           "SG.key",
		BaseURL:          srv.URL,
		DefaultFromEmail: "noreply@example.com",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "client@example.com"}},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 1 {
		t.Fatalf("provider calls: want=1 got=%d", calls)
	}
	if gotAuth != "Bearer SG.key" {
		t.Fatalf("auth header: got=%q", gotAuth)
	}
	if result.MessageID != "sg-abc" {
		t.Fatalf("message id: got=%q", result.MessageID)
	}
	if payload.From.Email != "noreply@example.com" {
		t.Fatalf("default from not applied: got=%q", payload.From.Email)
	}
}

func TestSendLiveUnauthorized(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{Mode: ModeLive, APIKey: "bad", BaseURL: srv.URL, DefaultFromEmail: "n@example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x@example.com"}}})
	if err == nil || err.Error() != "Unauthorized: invalid SendGrid API key" {
		t.Fatalf("401 mapping: got=%v", err)
	}
	// No retry on failure.
	if calls != 1 {
		t.Fatalf("provider calls: want=1 got=%d", calls)
	}
}

func TestSendLiveStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"does not contain a valid address"},{"message":"subject required"}]}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{Mode: ModeLive, APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "n@example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "bogus"}}})
	if err == nil || !strings.Contains(err.Error(), "does not contain a valid address; subject required") {
		t.Fatalf("structured error: got=%v", err)
	}
}

func TestNewRejectsLiveWithoutKey(t *testing.T) {
	if _, err := New(testLogger(), Config{Mode: ModeLive}); err == nil {
		t.Fatalf("live mode without key must fail")
	}
}
