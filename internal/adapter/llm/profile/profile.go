// Package profile loads inference profiles, JSON files that describe an
// OpenAI-compatible endpoint together with the model, credentials, and
// hyperparameters to use against it.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/adapter/llm/openai"
	"github.com/mdrews/pentestgen/internal/domain"
)

// Profile describes an OpenAI-compatible inference endpoint.
type Profile struct {
	Name            string                 `json:"name"`
	BaseURL         string                 `json:"base_url"`
	ModelID         string                 `json:"model_id"`
	APIKey          string                 `json:"api_key"`
	SystemPrompt    string                 `json:"system_prompt,omitempty"`
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`
}

// Validate checks that the profile has the fields needed to build a client.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return domain.NewConfigurationError("profile.name", fmt.Errorf("missing"))
	}
	if p.BaseURL == "" {
		return domain.NewConfigurationError("profile.base_url", fmt.Errorf("missing"))
	}
	if p.ModelID == "" {
		return domain.NewConfigurationError("profile.model_id", fmt.Errorf("missing"))
	}
	return nil
}

// Load reads a single profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigurationError("profile", fmt.Errorf("reading %s: %w", path, err))
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.NewConfigurationError("profile", fmt.Errorf("parsing %s: %w", path, err))
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.APIKey = os.ExpandEnv(p.APIKey)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadByName resolves a profile name to <dir>/<name>.json and loads it.
func LoadByName(dir, name string) (*Profile, error) {
	if dir == "" {
		dir = "profiles"
	}
	return Load(filepath.Join(dir, name+".json"))
}

// List returns the profile names available under dir, without extensions.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

// BuildProvider wires the profile into an OpenAI-compatible provider.
func (p *Profile) BuildProvider(logger llmhttp.Logger, metrics llmhttp.Metrics) *openai.Provider {
	client := openai.NewHTTPClient(p.APIKey, p.ModelID)
	client.SetBaseURL(strings.TrimSuffix(p.BaseURL, "/"))
	client.SetProviderName(p.Name)
	if p.SystemPrompt != "" {
		client.SetSystemPrompt(p.SystemPrompt)
	}
	if len(p.Hyperparameters) > 0 {
		client.SetExtraParams(p.Hyperparameters)
	}
	if logger != nil {
		client.SetLogger(logger)
	}
	if metrics != nil {
		client.SetMetrics(metrics)
	}
	return openai.NewNamedProvider(p.Name, p.ModelID, client)
}
