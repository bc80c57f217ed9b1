package openai

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
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// HTTPClient is an HTTP client for any OpenAI-compatible Chat Completions
// endpoint. Inference profiles reuse it with a custom base URL.
type HTTPClient struct {
	apiKey       string
	model        string
	baseURL      string
	providerName string
	systemPrompt string
	extraParams  map[string]interface{}
	timeout      time.Duration
	retry        llmhttp.RetryConfig
	client       *http.Client
	logger       llmhttp.Logger
	metrics      llmhttp.Metrics
}

// NewHTTPClient creates a new OpenAI HTTP client.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:       apiKey,
		model:        model,
		baseURL:      defaultBaseURL,
		providerName: "openai",
		timeout:      defaultTimeout,
		retry:        llmhttp.DefaultRetryConfig(),
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL points the client at a different OpenAI-compatible endpoint.
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetProviderName overrides the provider label used in logs and errors.
func (c *HTTPClient) SetProviderName(name string) {
	c.providerName = name
}

// SetSystemPrompt prepends a system message to every call.
func (c *HTTPClient) SetSystemPrompt(prompt string) {
	c.systemPrompt = prompt
}

// SetExtraParams merges additional request parameters (profile
// hyperparameters such as top_p) into every call.
func (c *HTTPClient) SetExtraParams(params map[string]interface{}) {
	c.extraParams = params
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
	Seed        *uint64
	MaxTokens   int
	JSONFormat  bool
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text         string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// Call makes a request to the Chat Completions API.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	temperature := options.Temperature
	reqBody := ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
		Seed:        options.Seed,
		MaxTokens:   options.MaxTokens,
	}
	if options.JSONFormat {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := encodeRequest(reqBody, c.extraParams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	start := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    c.providerName,
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(c.providerName, c.model)
	}

	var response *APIResponse
	operation := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return llmhttp.NewTimeoutError(c.providerName, "request timed out")
			}
			return llmhttp.NewTimeoutError(c.providerName, err.Error())
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp.StatusCode, body)
		}

		var chatResp ChatCompletionResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if len(chatResp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		response = &APIResponse{
			Text:         chatResp.Choices[0].Message.Content,
			TokensIn:     chatResp.Usage.PromptTokens,
			TokensOut:    chatResp.Usage.CompletionTokens,
			Model:        chatResp.Model,
			FinishReason: chatResp.Choices[0].FinishReason,
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		c.logFailure(ctx, start, err)
		return nil, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     c.providerName,
			Model:        response.Model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     response.TokensIn,
			TokensOut:    response.TokensOut,
			StatusCode:   http.StatusOK,
			FinishReason: response.FinishReason,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordDuration(c.providerName, c.model, time.Since(start))
		c.metrics.RecordTokens(c.providerName, c.model, response.TokensIn, response.TokensOut)
	}

	return response, nil
}

// encodeRequest marshals the request, merging profile hyperparameters at
// the top level. Struct fields win over extras on key collision.
func encodeRequest(req ChatCompletionRequest, extra map[string]interface{}) ([]byte, error) {
	if len(extra) == 0 {
		return json.Marshal(req)
	}

	base, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func (c *HTTPClient) logFailure(ctx context.Context, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordError(c.providerName, c.model, llmhttp.ErrTypeUnknown)
	}
	if c.logger == nil {
		return
	}
	errLog := llmhttp.ErrorLog{
		Provider:  c.providerName,
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
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError(c.providerName, message)
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError(c.providerName, message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(c.providerName, message)
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError(c.providerName, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return llmhttp.NewServiceUnavailableError(c.providerName, message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   c.providerName,
		}
	}
}
