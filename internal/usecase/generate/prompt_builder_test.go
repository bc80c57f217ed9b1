package generate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/scenario"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

func TestBuildQueryPromptInterpolatesContext(t *testing.T) {
	builder, err := generate.NewPromptBuilder()
	require.NoError(t, err)

	sctx := scenario.Context{
		Phase:          "Reconnaissance",
		Environment:    "Internal Network",
		EngagementType: "Black Box",
		Constraint:     "Stealth required",
	}

	prompt, err := builder.BuildQueryPrompt(sctx)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Reconnaissance")
	assert.Contains(t, prompt, "Internal Network")
	assert.Contains(t, prompt, "Black Box")
	assert.Contains(t, prompt, "Stealth required")
	assert.Contains(t, prompt, "Respond ONLY with the user query")
	assert.NotContains(t, prompt, "{{")
}

func TestBuildCommandPromptInterpolatesQuery(t *testing.T) {
	builder, err := generate.NewPromptBuilder()
	require.NoError(t, err)

	userQuery := "I need to enumerate SMB shares on 10.0.0.0/24 without tripping IDS."
	prompt, err := builder.BuildCommandPrompt(userQuery)
	require.NoError(t, err)

	assert.Contains(t, prompt, userQuery)
	assert.Contains(t, prompt, "Respond ONLY in JSON format")
	assert.NotContains(t, prompt, "{{")
}

func TestBuildCommandPromptNamesEveryStep(t *testing.T) {
	builder, err := generate.NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := builder.BuildCommandPrompt("query")
	require.NoError(t, err)

	for _, step := range []string{
		"Goal Identification",
		"Right Tool Selection",
		"Command Optimization",
		"Command Explanation",
		"Risk Analysis",
		"Risk Determination",
	} {
		assert.Contains(t, prompt, step)
	}
	assert.Contains(t, prompt, "generated_user_query")
	assert.Contains(t, prompt, "command")
}
