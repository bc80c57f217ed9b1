package generate

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/mdrews/pentestgen/internal/scenario"
)

// PromptBuilder renders the two prompt templates. Templates are parsed once
// at construction and immutable afterwards.
type PromptBuilder struct {
	queryTmpl   *template.Template
	commandTmpl *template.Template
}

// NewPromptBuilder parses the built-in templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	queryTmpl, err := template.New("query").Parse(queryPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse query template: %w", err)
	}
	commandTmpl, err := template.New("command").Parse(commandPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse command template: %w", err)
	}
	return &PromptBuilder{
		queryTmpl:   queryTmpl,
		commandTmpl: commandTmpl,
	}, nil
}

// BuildQueryPrompt fills the query-generation template with the selected
// context values.
func (b *PromptBuilder) BuildQueryPrompt(sctx scenario.Context) (string, error) {
	var buf bytes.Buffer
	if err := b.queryTmpl.Execute(&buf, sctx); err != nil {
		return "", fmt.Errorf("render query prompt: %w", err)
	}
	return buf.String(), nil
}

// BuildCommandPrompt fills the command-generation template with the user
// query.
func (b *PromptBuilder) BuildCommandPrompt(userQuery string) (string, error) {
	var buf bytes.Buffer
	data := struct{ UserQuery string }{UserQuery: userQuery}
	if err := b.commandTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render command prompt: %w", err)
	}
	return buf.String(), nil
}
