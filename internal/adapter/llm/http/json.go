package http

import (
	"regexp"
	"strings"
)

var (
	// Matches a fenced code block, optionally tagged json. Greedy to the
	// last closing fence so JSON containing example code blocks survives.
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")
)

// ExtractJSONFromMarkdown extracts JSON from markdown code fences.
//
// Models frequently wrap their JSON reply in ``` fences despite being told
// not to. If a fenced block is present its content is returned, otherwise
// the trimmed original text (which may already be raw JSON).
func ExtractJSONFromMarkdown(text string) string {
	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(text)
}

// ExtractJSONObject performs the best-effort second stage of response
// parsing: after fence stripping, locate the outermost '{' ... '}' pair and
// return that substring. This recovers replies where the model surrounds a
// valid JSON object with prose. Returns "" when no brace pair exists; the
// caller decides that the response is malformed.
func ExtractJSONObject(text string) string {
	candidate := ExtractJSONFromMarkdown(text)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return candidate[start : end+1]
}
