package credential

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

const (
	defaultTimeout  = 5 * time.Second
	maxResponseSize = 64 * 1024
	validatePath    = "/operators/validate"
	apiKeyHeader    = "X-API-Key"
)

// ErrTransport wraps failures to reach or understand the external validator.
var ErrTransport = errors.New("credential validator unreachable")

// Validator checks a username/password pair against an external identity
// system. A nil error with false means the credentials were rejected.
type Validator interface {
	Validate(ctx context.Context, username, password string) (bool, error)
}

// HTTPValidatorConfig configures HTTPValidator.
type HTTPValidatorConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPValidator calls POST {BaseURL}/operators/validate.
type HTTPValidator struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type validateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func NewHTTPValidator(cfg HTTPValidatorConfig) (*HTTPValidator, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("credential validator base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPValidator{
		endpoint:   base + validatePath,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
	}, nil
}

func (v *HTTPValidator) Validate(ctx context.Context, username, password string) (bool, error) {
	body, err := json.Marshal(validateRequest{Username: username, Password: password})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if v.apiKey != "" {
		req.Header.Set(apiKeyHeader, v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return false, nil
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return false, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	var decoded validateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&decoded); err != nil {
		return false, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return decoded.Valid, nil
}
