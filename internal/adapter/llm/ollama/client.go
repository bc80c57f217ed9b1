package ollama

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

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
)

const (
	defaultTimeout = 120 * time.Second // Local models can be slower
)

// HTTPClient is an HTTP client for the Ollama API.
type HTTPClient struct {
	baseURL string
	model   string
	timeout time.Duration
	retry   llmhttp.RetryConfig
	client  *http.Client
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
}

// NewHTTPClient creates a new Ollama HTTP client.
func NewHTTPClient(baseURL, model string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		model:   model,
		timeout: defaultTimeout,
		retry:   llmhttp.DefaultRetryConfig(),
		client:  &http.Client{Timeout: defaultTimeout},
	}
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
	JSONFormat  bool
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text      string
	TokensIn  int
	TokensOut int
	Model     string
}

// Call makes a request to the Ollama Generate API.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	reqBody := GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	if options.JSONFormat {
		reqBody.Format = "json"
	}

	opts := make(map[string]interface{})
	if options.Temperature > 0 {
		opts["temperature"] = options.Temperature
	}
	if options.Seed != nil {
		opts["seed"] = float64(*options.Seed)
	}
	if len(opts) > 0 {
		reqBody.Options = opts
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/generate"
	start := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "ollama",
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest("ollama", c.model)
	}

	var resp *http.Response
	err = llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		// Recreate request for each retry
		retryReq, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  "ollama",
			}
		}
		retryReq.Header.Set("Content-Type", "application/json")

		var callErr error
		resp, callErr = c.client.Do(retryReq)
		if callErr != nil {
			if strings.Contains(callErr.Error(), "connection refused") {
				return &llmhttp.Error{
					Type:      llmhttp.ErrTypeServiceUnavailable,
					Message:   fmt.Sprintf("Ollama server not reachable. Is Ollama running? Try: ollama serve. Error: %s", callErr.Error()),
					Retryable: false,
					Provider:  "ollama",
				}
			}
			return llmhttp.NewTimeoutError("ollama", callErr.Error())
		}

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return c.handleErrorResponse(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retry)

	if err != nil {
		c.logFailure(ctx, start, err)
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !genResp.Done {
		return nil, fmt.Errorf("incomplete response from Ollama (done=false)")
	}
	if genResp.Response == "" {
		return nil, fmt.Errorf("empty response from Ollama")
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   "ollama",
			Model:      genResp.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			TokensIn:   genResp.PromptEvalCount,
			TokensOut:  genResp.EvalCount,
			StatusCode: resp.StatusCode,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordDuration("ollama", c.model, time.Since(start))
		c.metrics.RecordTokens("ollama", c.model, genResp.PromptEvalCount, genResp.EvalCount)
	}

	return &APIResponse{
		Text:      genResp.Response,
		TokensIn:  genResp.PromptEvalCount,
		TokensOut: genResp.EvalCount,
		Model:     genResp.Model,
	}, nil
}

func (c *HTTPClient) logFailure(ctx context.Context, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordError("ollama", c.model, llmhttp.ErrTypeUnknown)
	}
	if c.logger == nil {
		return
	}
	errLog := llmhttp.ErrorLog{
		Provider:  "ollama",
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

// handleErrorResponse maps HTTP status codes to typed errors.
func (c *HTTPClient) handleErrorResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	message := fmt.Sprintf("HTTP %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}

	switch statusCode {
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError("ollama", fmt.Sprintf("%s. Pull it with: ollama pull %s", message, c.model))
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError("ollama", message)
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return llmhttp.NewServiceUnavailableError("ollama", message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "ollama",
		}
	}
}
