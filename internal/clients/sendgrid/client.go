package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/utils"
)

// Mode is the explicit three-way delivery switch. It is resolved once in
// ConfigFromEnv so the client itself never sniffs credentials:
// SENDGRID_API_KEY unset → disabled, set to the empty string → mock
// (local development, sends succeed without touching the network),
// non-empty → live.
const (
	ModeDisabled = "disabled"
	ModeMock     = "mock"
	ModeLive     = "live"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	Mode             string
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	cfg := Config{
		Mode:             ModeDisabled,
		BaseURL:          strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		DefaultFromEmail: utils.GetEnv("SENDGRID_FROM_EMAIL", "noreply@therapyassignments.com", log),
		DefaultFromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:          time.Duration(utils.GetEnvAsInt("SENDGRID_TIMEOUT_SECONDS", 30, log)) * time.Second,
	}
	key, ok := os.LookupEnv("SENDGRID_API_KEY")
	switch {
	case !ok:
		cfg.Mode = ModeDisabled
	case key == "":
		cfg.Mode = ModeMock
	default:
		cfg.Mode = ModeLive
		cfg.APIKey = key
	}
	return cfg
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	switch cfg.Mode {
	case ModeDisabled, ModeMock, ModeLive:
	case "":
		cfg.Mode = ModeDisabled
	default:
		return nil, fmt.Errorf("unknown sendgrid mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeLive && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY for live mode")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- public request/response types ---

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendEmailRequest struct {
	From    EmailAddress
	To      []EmailAddress
	Subject string
	HTML    string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

// ErrNotConfigured is returned in disabled mode; callers surface it as a
// logged failure rather than an HTTP error.
var ErrNotConfigured = fmt.Errorf("Email service not configured")

// --- SendGrid mail send wire types ---

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	Subject          string            `json:"subject,omitempty"`
	Content          []mailContent     `json:"content,omitempty"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Send submits one mail/send call. Exactly one attempt is made: failures
// are reported to the caller and logged there, never retried.
func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	switch c.cfg.Mode {
	case ModeDisabled:
		c.log.Warn("SendGrid not configured, email sending disabled")
		return nil, ErrNotConfigured
	case ModeMock:
		c.log.Warn("SendGrid mock mode active, treating send as successful")
		return &SendEmailResult{StatusCode: http.StatusAccepted, MessageID: "mock"}, nil
	}

	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	if strings.TrimSpace(req.From.Email) == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: at least one recipient required")
	}

	payload := mailSendRequest{
		Personalizations: []personalization{{To: req.To}},
		From:             req.From,
		Subject:          strings.TrimSpace(req.Subject),
		Content:          []mailContent{{Type: "text/html", Value: req.HTML}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("Unauthorized: invalid SendGrid API key")
		}
		return nil, fmt.Errorf("%s", providerErrorMessage(resp.StatusCode, raw))
	}

	return &SendEmailResult{
		StatusCode: resp.StatusCode,
		MessageID:  resp.Header.Get("X-Message-Id"),
	}, nil
}

// providerErrorMessage prefers SendGrid's structured errors array over a
// raw body dump.
func providerErrorMessage(status int, raw []byte) string {
	var body mailSendErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			if strings.TrimSpace(e.Message) != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fmt.Sprintf("sendgrid http %d: %s", status, strings.TrimSpace(string(raw)))
}
