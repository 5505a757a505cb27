package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	tb, err := Registry(Options{})
	require.NoError(t, err)

	names := []string{}
	for _, tool := range tb.Tools() {
		names = append(names, tool.GetName())
	}
	assert.Equal(t, []string{CalculatorName, StockPriceName, SearchName}, names)
	assert.False(t, tb.HasTool(WebFetchName))
}

func TestRegistryEnabled(t *testing.T) {
	tb, err := Registry(Options{Enabled: []string{CalculatorName, WebFetchName}})
	require.NoError(t, err)
	assert.True(t, tb.HasTool(WebFetchName))
	assert.Len(t, tb.Tools(), 2)
}

func TestRegistryRejects(t *testing.T) {
	_, err := Registry(Options{Enabled: []string{"nope"}})
	assert.ErrorContains(t, err, "unknown tool")

	_, err = Registry(Options{Enabled: []string{CalculatorName, CalculatorName}})
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistryExecutesThroughMiddleware(t *testing.T) {
	tb, err := Registry(Options{Enabled: []string{CalculatorName}})
	require.NoError(t, err)

	resp, err := tb.ExecuteTool(context.Background(), &aisdk.ToolCall{
		ID:       "call_1",
		Function: aisdk.FunctionCall{Name: CalculatorName, Arguments: json.RawMessage(`{"first_num":4,"second_num":2,"operation":"mul"}`)},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_num":4,"second_num":2,"operation":"mul","result":8}`, string(resp.Content))
}

func TestNamesCoverRegistry(t *testing.T) {
	for _, name := range Names() {
		_, err := Registry(Options{Enabled: []string{name}})
		assert.NoError(t, err, name)
	}
}
