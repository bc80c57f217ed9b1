package http_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/adapter/llm/http"
)

func TestExtractJSONFromMarkdown_JSONCodeBlock(t *testing.T) {
	markdown := "```json\n{\"command\": \"nmap -sV target\"}\n```"
	result := http.ExtractJSONFromMarkdown(markdown)

	assert.Equal(t, `{"command": "nmap -sV target"}`, result)
}

func TestExtractJSONFromMarkdown_PlainCodeBlock(t *testing.T) {
	markdown := "```\n{\"command\": \"nmap -sV target\"}\n```"
	result := http.ExtractJSONFromMarkdown(markdown)

	assert.Equal(t, `{"command": "nmap -sV target"}`, result)
}

func TestExtractJSONFromMarkdown_RawJSON(t *testing.T) {
	rawJSON := `{"command": "nmap -sV target"}`
	result := http.ExtractJSONFromMarkdown(rawJSON)

	// Should return trimmed input when no code block
	assert.Equal(t, rawJSON, result)
}

func TestExtractJSONFromMarkdown_EmptyString(t *testing.T) {
	assert.Equal(t, "", http.ExtractJSONFromMarkdown(""))
}

func TestExtractJSONFromMarkdown_NestedBackticks(t *testing.T) {
	// A command explanation may itself quote a shell snippet in backticks.
	markdown := "```json\n{\"explanation\": \"run `id` first\"}\n```"
	result := http.ExtractJSONFromMarkdown(markdown)

	assert.Equal(t, "{\"explanation\": \"run `id` first\"}", result)
}

func TestExtractJSONObject_ProseWrapped(t *testing.T) {
	text := `Here is the record you asked for: {"command": "whoami"} Hope that helps!`
	result := http.ExtractJSONObject(text)

	assert.Equal(t, `{"command": "whoami"}`, result)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result), &decoded))
}

func TestExtractJSONObject_FencedAndProseWrapped(t *testing.T) {
	text := "Sure!\n```json\nThe record: {\"command\": \"whoami\"}\n```"
	result := http.ExtractJSONObject(text)

	assert.Equal(t, `{"command": "whoami"}`, result)
}

func TestExtractJSONObject_NestedObjects(t *testing.T) {
	text := `{"command": "id", "steps": {"Risk Determination": "low"}}`
	result := http.ExtractJSONObject(text)

	// Outermost braces win, nested objects stay intact.
	assert.Equal(t, text, result)
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	assert.Equal(t, "", http.ExtractJSONObject("no json here"))
	assert.Equal(t, "", http.ExtractJSONObject(""))
	assert.Equal(t, "", http.ExtractJSONObject("} backwards {"))
}
