// Package bluesnap implements the remote BlueSnap Payment API: card and ECP
// transactions, vaulted shoppers and recurring subscriptions over its JSON
// REST surface.
package bluesnap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commercekit/bluesnap-service/internal/domain"
	httpclient "github.com/commercekit/bluesnap-service/pkg/http"
	"github.com/commercekit/bluesnap-service/pkg/observability"
	"go.uber.org/zap"
)

// Environment selects the BlueSnap endpoint family
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"

	sandboxBaseURL    = "https://sandbox.bluesnap.com"
	productionBaseURL = "https://ws.bluesnap.com"
)

// BaseURL returns the API base URL for an environment. Anything that is not
// explicitly production resolves to the sandbox.
func BaseURL(env Environment) string {
	if env == EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// Config holds the BlueSnap API credentials and endpoint selection
type Config struct {
	Environment Environment
	Username    string
	Password    string
	Timeout     time.Duration
}

// Client is a thin authenticated JSON client for the BlueSnap Payment API
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new BlueSnap API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    BaseURL(cfg.Environment),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpclient.NewClient(httpclient.GatewayClientConfig(), timeout),
		logger:     logger,
	}
}

// apiError is BlueSnap's error response body
type apiError struct {
	Message []apiErrorEntry `json:"message"`
}

type apiErrorEntry struct {
	ErrorName   string `json:"errorName"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) first() apiErrorEntry {
	if len(e.Message) == 0 {
		return apiErrorEntry{}
	}
	return e.Message[0]
}

// do performs an authenticated JSON request against the BlueSnap API. A nil
// out skips response decoding (some endpoints answer 204).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrorCodeInternalError, "encode request body", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "build request", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.ObserveGatewayRequest(path, time.Since(start))
	if err != nil {
		c.logger.Error("bluesnap request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return domain.WrapError(domain.ErrorCodeGatewayError, "bluesnap request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayError, "read response body", err)
	}

	c.logger.Debug("bluesnap response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return c.decodeError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.WrapError(domain.ErrorCodeGatewayError, "decode response body", err)
		}
	}
	return nil
}

// Decline codes that require new payment details from the shopper. Anything
// else on a 4xx is surfaced as a generic gateway error the caller may retry
// with the same inputs.
var hardDeclineCodes = map[string]bool{
	"14002": true, // transaction failed / do not honor
	"14016": true, // card expired
	"14040": true, // token expired
	"14042": true, // card not supported
	"430285": true,
	"430360": true,
}

func (c *Client) decodeError(status int, body []byte) error {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Message) == 0 {
		return domain.NewDomainError(domain.ErrorCodeGatewayError,
			fmt.Sprintf("bluesnap returned status %d", status)).
			WithDetail("body", string(body))
	}

	entry := parsed.first()
	code := domain.ErrorCodeGatewayError
	if hardDeclineCodes[entry.Code] {
		code = domain.ErrorCodeHardDecline
	}

	return domain.NewDomainError(code, entry.Description).
		WithDetail("error_name", entry.ErrorName).
		WithDetail("error_code", entry.Code).
		WithDetail("status", status)
}
