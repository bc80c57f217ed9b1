// Package app wires configuration into providers and observability
// components shared by the CLI and the Slack bot binaries.
package app

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mdrews/pentestgen/internal/adapter/llm/anthropic"
	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/adapter/llm/ollama"
	"github.com/mdrews/pentestgen/internal/adapter/llm/openai"
	"github.com/mdrews/pentestgen/internal/adapter/llm/static"
	"github.com/mdrews/pentestgen/internal/config"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

// Observability holds shared logger and metrics instances. Either field
// may be nil when the corresponding concern is disabled.
type Observability struct {
	Logger  llmhttp.Logger
	Metrics llmhttp.Metrics
}

// BuildObservability creates observability components based on configuration.
func BuildObservability(cfg config.ObservabilityConfig) Observability {
	var obs Observability

	if cfg.Logging.Enabled {
		logLevel := llmhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmhttp.LogLevelDebug
		case "error":
			logLevel = llmhttp.LogLevelError
		}

		logFormat := llmhttp.LogFormatHuman
		if cfg.Logging.Format == "json" {
			logFormat = llmhttp.LogFormatJSON
		}

		obs.Logger = llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
	}

	if cfg.Metrics.Enabled {
		obs.Metrics = llmhttp.NewDefaultMetrics()
	}

	return obs
}

// BuildProvider constructs the completion backend for a named provider.
// It returns the completer and the model it will use.
func BuildProvider(name string, cfg config.Config, obs Observability) (generate.Completer, string, error) {
	if name == "static" {
		return static.NewProvider(), "static-v1", nil
	}

	providerCfg, err := cfg.EnabledProvider(name)
	if err != nil {
		return nil, "", err
	}

	timeout, retry := HTTPSettings(cfg.HTTP, providerCfg)

	switch name {
	case "ollama":
		host := providerCfg.BaseURL
		if envHost := os.Getenv("OLLAMA_HOST"); envHost != "" {
			host = envHost
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		client := ollama.NewHTTPClient(host, providerCfg.Model)
		client.SetTimeout(timeout)
		client.SetRetryConfig(retry)
		if obs.Logger != nil {
			client.SetLogger(obs.Logger)
		}
		if obs.Metrics != nil {
			client.SetMetrics(obs.Metrics)
		}
		return ollama.NewProvider(providerCfg.Model, client), providerCfg.Model, nil

	case "openai":
		if providerCfg.APIKey == "" {
			return nil, "", fmt.Errorf("provider %q missing API key (set OPENAI_API_KEY or providers.openai.apiKey)", name)
		}
		client := openai.NewHTTPClient(providerCfg.APIKey, providerCfg.Model)
		if providerCfg.BaseURL != "" {
			client.SetBaseURL(providerCfg.BaseURL)
		}
		client.SetTimeout(timeout)
		client.SetRetryConfig(retry)
		if obs.Logger != nil {
			client.SetLogger(obs.Logger)
		}
		if obs.Metrics != nil {
			client.SetMetrics(obs.Metrics)
		}
		return openai.NewProvider(providerCfg.Model, client), providerCfg.Model, nil

	case "anthropic":
		if providerCfg.APIKey == "" {
			return nil, "", fmt.Errorf("provider %q missing API key (set ANTHROPIC_API_KEY or providers.anthropic.apiKey)", name)
		}
		client := anthropic.NewHTTPClient(providerCfg.APIKey, providerCfg.Model)
		if providerCfg.BaseURL != "" {
			client.SetBaseURL(providerCfg.BaseURL)
		}
		client.SetTimeout(timeout)
		client.SetRetryConfig(retry)
		if obs.Logger != nil {
			client.SetLogger(obs.Logger)
		}
		if obs.Metrics != nil {
			client.SetMetrics(obs.Metrics)
		}
		return anthropic.NewProvider(providerCfg.Model, client), providerCfg.Model, nil

	default:
		return nil, "", fmt.Errorf("unsupported provider %q (supported: ollama, openai, anthropic, static)", name)
	}
}

// HTTPSettings resolves the HTTP timeout and retry policy, applying
// per-provider overrides on top of the global configuration.
func HTTPSettings(httpCfg config.HTTPConfig, providerCfg config.ProviderConfig) (time.Duration, llmhttp.RetryConfig) {
	retry := llmhttp.DefaultRetryConfig()

	timeout := parseDuration(httpCfg.Timeout, 60*time.Second)
	if providerCfg.Timeout != nil {
		timeout = parseDuration(*providerCfg.Timeout, timeout)
	}

	if httpCfg.MaxRetries > 0 {
		retry.MaxRetries = httpCfg.MaxRetries
	}
	if providerCfg.MaxRetries != nil && *providerCfg.MaxRetries > 0 {
		retry.MaxRetries = *providerCfg.MaxRetries
	}

	retry.InitialBackoff = parseDuration(httpCfg.InitialBackoff, retry.InitialBackoff)
	if providerCfg.InitialBackoff != nil {
		retry.InitialBackoff = parseDuration(*providerCfg.InitialBackoff, retry.InitialBackoff)
	}

	retry.MaxBackoff = parseDuration(httpCfg.MaxBackoff, retry.MaxBackoff)
	if providerCfg.MaxBackoff != nil {
		retry.MaxBackoff = parseDuration(*providerCfg.MaxBackoff, retry.MaxBackoff)
	}

	if httpCfg.BackoffMultiplier > 1 {
		retry.Multiplier = httpCfg.BackoffMultiplier
	}

	return timeout, retry
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration %q, using %s", value, fallback)
		return fallback
	}
	return parsed
}
