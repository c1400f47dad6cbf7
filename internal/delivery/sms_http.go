package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSCarrier delivers SMS through a carrier REST API (form POST with basic
// auth, Twilio-style). The same type serves both the primary and the
// secondary carrier; only name and credentials differ.
type SMSCarrier struct {
	ProviderName string
	APIURL       string
	AccountID    string
	Token        string
	From         string
	client       *http.Client
}

func NewSMSCarrier(name, apiURL, accountID, token, from string, timeout time.Duration) *SMSCarrier {
	return &SMSCarrier{
		ProviderName: name,
		APIURL:       apiURL,
		AccountID:    accountID,
		Token:        token,
		From:         from,
		client:       &http.Client{Timeout: timeout},
	}
}

func (c *SMSCarrier) Name() string { return c.ProviderName }

func (c *SMSCarrier) Configured() bool {
	return c.APIURL != "" && c.AccountID != "" && c.Token != ""
}

func (c *SMSCarrier) Attempt(ctx context.Context, msg Message) (string, error) {
	form := url.Values{}
	form.Set("From", c.From)
	form.Set("To", msg.Recipient)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountID, c.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms API call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sms API returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Sid string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil
	}
	return out.Sid, nil
}
