package tool_webfetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head>
    <title>Test Page</title>
</head>
<body>
    <h1>Hello World</h1>
    <p>This is a test paragraph with <strong>bold text</strong>.</p>
    <script>console.log("script content");</script>
    <style>.test { color: red; }</style>
</body>
</html>`

func fetch(t *testing.T, cfg Config, params map[string]interface{}) *aisdk.ToolResponse {
	t.Helper()
	tool, err := Tool(cfg)
	require.NoError(t, err)
	args, err := json.Marshal(params)
	require.NoError(t, err)
	resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
		Function: aisdk.FunctionCall{Name: Name, Arguments: args},
	})
	require.NoError(t, err)
	return resp
}

func TestWebFetchFormats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	tests := []struct {
		name       string
		format     string
		expectFunc func(t *testing.T, content string)
	}{
		{
			name:   "html",
			format: "html",
			expectFunc: func(t *testing.T, content string) {
				assert.Contains(t, content, "<h1>Hello World</h1>")
				assert.Contains(t, content, "script")
			},
		},
		{
			name:   "text",
			format: "text",
			expectFunc: func(t *testing.T, content string) {
				assert.Contains(t, content, "Hello World")
				assert.NotContains(t, content, "console.log")
				assert.NotContains(t, content, "color: red")
			},
		},
		{
			name:   "markdown by default",
			format: "",
			expectFunc: func(t *testing.T, content string) {
				assert.Contains(t, content, "# Hello World")
				assert.Contains(t, content, "**bold text**")
				assert.NotContains(t, content, "console.log")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fetch(t, Config{}, map[string]interface{}{"url": server.URL, "format": tt.format})
			require.False(t, resp.IsError, string(resp.Content))

			var out Output
			require.NoError(t, json.Unmarshal(resp.Content, &out))
			assert.Equal(t, http.StatusOK, out.StatusCode)
			assert.Equal(t, server.URL, out.URL)
			tt.expectFunc(t, out.Content)
		})
	}
}

func TestWebFetchTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	resp := fetch(t, Config{MaxChars: 10}, map[string]interface{}{"url": server.URL, "format": "text"})
	var out Output
	require.NoError(t, json.Unmarshal(resp.Content, &out))
	assert.Equal(t, strings.Repeat("a", 10), out.Content)
	assert.True(t, out.Truncated)
}

func TestWebFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{name: "missing url", params: map[string]interface{}{}, want: "required field 'url' is missing"},
		{name: "bad format", params: map[string]interface{}{"url": server.URL, "format": "pdf"}, want: "format must be one of"},
		{name: "bad scheme", params: map[string]interface{}{"url": "ftp://example.com"}, want: "URL must start with http://"},
		{name: "not found", params: map[string]interface{}{"url": server.URL}, want: "status code: 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fetch(t, Config{}, tt.params)
			assert.True(t, resp.IsError)
			assert.Contains(t, string(resp.Content), tt.want)
		})
	}
}
