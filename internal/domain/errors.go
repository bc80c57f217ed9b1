package domain

import "fmt"

// GenerationError indicates the provider call failed or returned unusable
// text. Batch callers skip the sample; interactive callers report it.
type GenerationError struct {
	Stage string // "scenario" or "command"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps a provider failure for the given pipeline stage.
func NewGenerationError(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}

// MalformedResponseError indicates the model reply could not be parsed into
// the expected JSON shape, even after best-effort extraction.
type MalformedResponseError struct {
	Detail string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Detail)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// NewMalformedResponseError describes an unparseable model reply.
func NewMalformedResponseError(detail string, err error) *MalformedResponseError {
	return &MalformedResponseError{Detail: detail, Err: err}
}

// ConfigurationError indicates a required credential or setting is missing
// at startup. It is fatal: the process must not start without it.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Setting)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError reports a missing or invalid startup setting.
func NewConfigurationError(setting string, err error) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Err: err}
}
