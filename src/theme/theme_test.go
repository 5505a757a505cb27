package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", Preview("a\n  b\tc", 0))
	assert.Equal(t, "short", Preview("short", 10))

	long := strings.Repeat("x", 50)
	got := Preview(long, 10)
	assert.Equal(t, 10, ansi.StringWidth(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestHighlightJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", HighlightJSON([]byte(`{"a":1}`), false))
	assert.Equal(t, "not json", HighlightJSON([]byte("not json"), false))

	colored := HighlightJSON([]byte(`{"a":1}`), true)
	assert.Contains(t, ansi.Strip(colored), `"a": 1`)
}

func TestSetTheme(t *testing.T) {
	orig := CurrentTheme
	defer SetTheme(orig)

	custom := orig
	custom.Danger = "1"
	SetTheme(custom)
	assert.Equal(t, custom, CurrentTheme)
	assert.Equal(t, lipgloss.Color("1"), ErrorStyle.GetForeground())
}

func TestDisableColor(t *testing.T) {
	defer SetTheme(CurrentTheme)

	DisableColor()
	assert.Equal(t, "you", UserStyle.Render("you"))
	assert.Equal(t, "oops", ErrorStyle.Render("oops"))
}
