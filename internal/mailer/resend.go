package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendURL = "https://api.resend.com"

// Resend delivers mail through the Resend HTTP API.
type Resend struct {
	apiKey     string
	baseURL    string
	from       string
	httpClient *http.Client
}

func NewResend(apiKey, baseURL, from string) (*Resend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key required")
	}
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	return &Resend{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (r *Resend) Name() string { return "resend" }

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (r *Resend) Send(ctx context.Context, msg Message) (err error) {
	defer func() { record(r.Name(), err) }()

	if err := msg.validate(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = r.from
	}

	body, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("resend api error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("resend api error: %s", resp.Status)
	}
	return nil
}
