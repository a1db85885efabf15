package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// WhatsAppConfig configures delivery through the Twilio Messages API.
type WhatsAppConfig struct {
	Enabled    bool
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

// WhatsAppChannel sends the plain-text template as a WhatsApp message.
type WhatsAppChannel struct {
	config     WhatsAppConfig
	endpoint   string
	httpClient *http.Client
}

func NewWhatsAppChannel(cfg WhatsAppConfig) (*WhatsAppChannel, error) {
	if cfg.Enabled && (cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "") {
		return nil, errors.New("whatsapp channel requires account sid, auth token and sender")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultTwilioBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WhatsAppChannel{
		config:     cfg,
		endpoint:   base + "/2010-04-01/Accounts/" + url.PathEscape(cfg.AccountSID) + "/Messages.json",
		httpClient: httpClient,
	}, nil
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Enabled() bool { return c.config.Enabled }

func (c *WhatsAppChannel) Mask(to Recipient) string { return MaskPhone(to.Phone) }

func (c *WhatsAppChannel) Send(ctx context.Context, to Recipient, content Content) error {
	if !c.config.Enabled {
		return ErrChannelDisabled
	}
	if strings.TrimSpace(to.Phone) == "" {
		return errors.New("recipient has no phone number")
	}

	form := url.Values{}
	form.Set("To", whatsAppAddress(to.Phone))
	form.Set("From", whatsAppAddress(c.config.From))
	form.Set("Body", content.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.config.AccountSID, c.config.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}
	return nil
}

func whatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
