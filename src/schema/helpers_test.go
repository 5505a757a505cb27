package schema

import (
	"encoding/json"
	"testing"

	jsonschema "github.com/swaggest/jsonschema-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleSchemas(t *testing.T) {
	tests := []struct {
		name   string
		schema *jsonschema.Schema
		want   jsonschema.SimpleType
	}{
		{"string", CreateStringSchema("a string"), jsonschema.String},
		{"number", CreateNumberSchema("a number"), jsonschema.Number},
		{"integer", CreateIntSchema("an int", 5, 1, 10), jsonschema.Integer},
		{"enum", CreateStringSchemaEnum("an enum", []string{"a", "b"}), jsonschema.String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.schema.Type)
			require.NotNil(t, tt.schema.Type.SimpleTypes)
			assert.Equal(t, tt.want, *tt.schema.Type.SimpleTypes)
			require.NotNil(t, tt.schema.Description)
		})
	}
}

func TestCreateIntSchemaBounds(t *testing.T) {
	s := CreateIntSchema("results", 5, 1, 25)
	require.NotNil(t, s.Default)
	assert.Equal(t, 5, *s.Default)
	assert.Equal(t, 1.0, *s.Minimum)
	assert.Equal(t, 25.0, *s.Maximum)
}

func TestCreateObjectSchemaJSON(t *testing.T) {
	s := CreateObjectSchema(map[string]*jsonschema.Schema{
		"symbol": CreateStringSchema("Ticker symbol"),
		"op":     CreateStringSchemaEnum("Operation", []string{"add", "sub"}),
	}, []string{"symbol"})

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, []any{"symbol"}, got["required"])

	props := got["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "description": "Ticker symbol"}, props["symbol"])
	assert.Equal(t, []any{"add", "sub"}, props["op"].(map[string]any)["enum"])
}
