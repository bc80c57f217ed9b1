package static_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/adapter/llm/static"
	"github.com/mdrews/pentestgen/internal/domain"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

func TestCompleteReturnsQuery(t *testing.T) {
	provider := static.NewProvider()

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "static", resp.Provider)
	assert.Equal(t, "static-v1", resp.Model)
	assert.NotEmpty(t, resp.Text)
	assert.False(t, json.Valid([]byte(resp.Text)), "query stage should return prose, not JSON")
}

func TestCompleteReturnsValidRecordJSON(t *testing.T) {
	provider := static.NewProvider()

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p", JSONOnly: true})
	require.NoError(t, err)

	var record domain.Record
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &record))

	record.GeneratedUserQuery = "stamped by the pipeline"
	assert.NoError(t, record.Validate())
}

func TestCompleteIsDeterministic(t *testing.T) {
	provider := static.NewProvider()
	req := generate.CompletionRequest{Prompt: "p", JSONOnly: true, Seed: 99}

	first, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)
	second, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
}
