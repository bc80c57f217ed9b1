package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 60 * time.Second
	anthropicVersion = "2023-06-01"
)

// HTTPClient is an HTTP client for the Anthropic Messages API.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	retry   llmhttp.RetryConfig
	client  *http.Client
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
}

// NewHTTPClient creates a new Anthropic HTTP client.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		retry:   llmhttp.DefaultRetryConfig(),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
	c.client.Timeout = timeout
}

// SetRetryConfig overrides the default retry policy.
func (c *HTTPClient) SetRetryConfig(cfg llmhttp.RetryConfig) {
	c.retry = cfg
}

// SetLogger attaches a structured logger.
func (c *HTTPClient) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetMetrics attaches a metrics tracker.
func (c *HTTPClient) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// CallOptions contains options for the API call.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text       string
	TokensIn   int
	TokensOut  int
	Model      string
	StopReason string
}

// Call makes a request to the Anthropic Messages API.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	maxTokens := options.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := options.Temperature

	reqBody := MessagesRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"
	start := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "anthropic",
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest("anthropic", c.model)
	}

	var response *APIResponse
	operation := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return llmhttp.NewTimeoutError("anthropic", "request timed out")
			}
			return llmhttp.NewTimeoutError("anthropic", err.Error())
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp.StatusCode, body)
		}

		var msgResp MessagesResponse
		if err := json.Unmarshal(body, &msgResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if len(msgResp.Content) == 0 {
			return fmt.Errorf("no content in response")
		}

		text := ""
		for _, block := range msgResp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}

		response = &APIResponse{
			Text:       text,
			TokensIn:   msgResp.Usage.InputTokens,
			TokensOut:  msgResp.Usage.OutputTokens,
			Model:      msgResp.Model,
			StopReason: msgResp.StopReason,
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		c.logFailure(ctx, start, err)
		return nil, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     "anthropic",
			Model:        response.Model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     response.TokensIn,
			TokensOut:    response.TokensOut,
			StatusCode:   http.StatusOK,
			FinishReason: response.StopReason,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordDuration("anthropic", c.model, time.Since(start))
		c.metrics.RecordTokens("anthropic", c.model, response.TokensIn, response.TokensOut)
	}

	return response, nil
}

func (c *HTTPClient) logFailure(ctx context.Context, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordError("anthropic", c.model, llmhttp.ErrTypeUnknown)
	}
	if c.logger == nil {
		return
	}
	errLog := llmhttp.ErrorLog{
		Provider:  "anthropic",
		Model:     c.model,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Error:     err,
	}
	var httpErr *llmhttp.Error
	if errors.As(err, &httpErr) {
		errLog.ErrorType = httpErr.Type
		errLog.StatusCode = httpErr.StatusCode
		errLog.Retryable = httpErr.Retryable
	}
	c.logger.LogError(ctx, errLog)
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *HTTPClient) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError("anthropic", message)
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError("anthropic", message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError("anthropic", message)
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError("anthropic", message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		return llmhttp.NewServiceUnavailableError("anthropic", message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "anthropic",
		}
	}
}
