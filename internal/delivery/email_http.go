package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MailerHTTP delivers email through a transactional mail REST API. It is
// the primary email provider; SMTP submission is the fallback.
type MailerHTTP struct {
	APIURL string
	APIKey string
	From   string
	client *http.Client
}

func NewMailerHTTP(apiURL, apiKey, from string, timeout time.Duration) *MailerHTTP {
	return &MailerHTTP{
		APIURL: apiURL,
		APIKey: apiKey,
		From:   from,
		client: &http.Client{Timeout: timeout},
	}
}

func (m *MailerHTTP) Name() string { return "mailer-http" }

func (m *MailerHTTP) Configured() bool { return m.APIURL != "" && m.APIKey != "" }

func (m *MailerHTTP) Attempt(ctx context.Context, msg Message) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"from":    m.From,
		"to":      msg.Recipient,
		"subject": msg.Subject,
		"text":    msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mail API call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Delivery succeeded even if the body is not the shape we expect.
		return "", nil
	}
	return out.ID, nil
}
