package domain

import (
	"encoding/json"
	"fmt"
)

// Steps holds the six justification fields that accompany every generated
// command. The JSON keys are part of the dataset contract and must not
// change between releases; downstream training pipelines key on them.
type Steps struct {
	GoalIdentification  string `json:"Goal Identification"`
	RightToolSelection  string `json:"Right Tool Selection"`
	CommandOptimization string `json:"Command Optimization"`
	CommandExplanation  string `json:"Command Explanation"`
	RiskAnalysis        string `json:"Risk Analysis"`
	RiskDetermination   string `json:"Risk Determination"`
}

// Record is one synthetic query/command pair, the unit of dataset output.
type Record struct {
	GeneratedUserQuery string `json:"generated_user_query"`
	Command            string `json:"command"`
	Steps              Steps  `json:"steps"`
}

// Validate checks that every documented field is present and non-empty.
// Malformed model output must never be silently coerced into a record, so
// an empty field is an error rather than a blank column.
func (r Record) Validate() error {
	fields := map[string]string{
		"generated_user_query": r.GeneratedUserQuery,
		"command":              r.Command,
		"Goal Identification":  r.Steps.GoalIdentification,
		"Right Tool Selection": r.Steps.RightToolSelection,
		"Command Optimization": r.Steps.CommandOptimization,
		"Command Explanation":  r.Steps.CommandExplanation,
		"Risk Analysis":        r.Steps.RiskAnalysis,
		"Risk Determination":   r.Steps.RiskDetermination,
	}
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("record field %q is empty", name)
		}
	}
	return nil
}

// MarshalLine encodes the record as a single JSONL line (no trailing newline).
func (r Record) MarshalLine() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}
