package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// EmailConfig configures delivery through the SendGrid v3 mail/send API.
type EmailConfig struct {
	Enabled    bool
	APIKey     string
	FromEmail  string
	FromName   string
	BaseURL    string
	HTTPClient *http.Client
}

// EmailChannel sends the HTML template by email.
type EmailChannel struct {
	config     EmailConfig
	endpoint   string
	httpClient *http.Client
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func NewEmailChannel(cfg EmailConfig) (*EmailChannel, error) {
	if cfg.Enabled && (cfg.APIKey == "" || cfg.FromEmail == "") {
		return nil, errors.New("email channel requires api key and sender address")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultSendGridBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailChannel{
		config:     cfg,
		endpoint:   base + "/v3/mail/send",
		httpClient: httpClient,
	}, nil
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Enabled() bool { return c.config.Enabled }

func (c *EmailChannel) Mask(to Recipient) string { return MaskEmail(to.Email) }

func (c *EmailChannel) Send(ctx context.Context, to Recipient, content Content) error {
	if !c.config.Enabled {
		return ErrChannelDisabled
	}
	if !strings.Contains(to.Email, "@") {
		return errors.New("recipient has no email address")
	}

	mail := sendGridMail{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: to.Email, Name: to.Name}}}},
		From:             sendGridAddress{Email: c.config.FromEmail, Name: c.config.FromName},
		Subject:          content.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: content.HTML}},
	}
	body, err := json.Marshal(mail)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
