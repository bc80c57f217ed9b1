package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mdrews/pentestgen/internal/domain"
)

// Config represents the full application configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Generator     GeneratorConfig           `yaml:"generator"`
	Profiles      ProfilesConfig            `yaml:"profiles"`
	HTTP          HTTPConfig                `yaml:"http"`
	Store         StoreConfig               `yaml:"store"`
	Slack         SlackConfig               `yaml:"slack"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// GeneratorConfig configures the dataset generation pipeline.
type GeneratorConfig struct {
	Provider    string  `yaml:"provider"`
	Count       int     `yaml:"count" validate:"min=1"`
	Output      string  `yaml:"output" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"maxTokens" validate:"min=0"`
	Concurrency int     `yaml:"concurrency" validate:"min=1"`
}

// ProfilesConfig locates inference profile files.
type ProfilesConfig struct {
	Dir string `yaml:"dir"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// StoreConfig configures the run history persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SlackConfig configures the Slack trigger bot.
type SlackConfig struct {
	AppToken     string         `yaml:"appToken"`
	BotToken     string         `yaml:"botToken"`
	DefaultCount int            `yaml:"defaultCount" validate:"min=1"`
	MaxCount     int            `yaml:"maxCount" validate:"min=1"`
	Reminder     ReminderConfig `yaml:"reminder"`
}

// ReminderConfig configures the daily usage reminder.
type ReminderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`

	// ChatURL is linked in the reminder so recipients can paste generated
	// scenarios into the team chat frontend.
	ChatURL string `yaml:"chatUrl" validate:"omitempty,url"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level" validate:"omitempty,oneof=debug info error"`
	Format        string `yaml:"format" validate:"omitempty,oneof=json human"`
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// MetricsConfig configures performance metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate checks field constraints and cross-field consistency.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return domain.NewConfigurationError("config", err)
	}

	if c.Generator.Provider != "" {
		if _, ok := c.Providers[c.Generator.Provider]; !ok {
			return domain.NewConfigurationError("generator.provider",
				fmt.Errorf("unknown provider %q", c.Generator.Provider))
		}
	}
	if c.Slack.DefaultCount > c.Slack.MaxCount {
		return domain.NewConfigurationError("slack.defaultCount",
			fmt.Errorf("default count %d exceeds max %d", c.Slack.DefaultCount, c.Slack.MaxCount))
	}

	return nil
}

// EnabledProvider returns the configuration for name if that provider
// is enabled.
func (c Config) EnabledProvider(name string) (ProviderConfig, error) {
	pc, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, domain.NewConfigurationError("providers",
			fmt.Errorf("provider %q not configured", name))
	}
	if !pc.Enabled {
		return ProviderConfig{}, domain.NewConfigurationError("providers."+name,
			fmt.Errorf("provider is disabled"))
	}
	return pc, nil
}
