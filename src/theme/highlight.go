package theme

import (
	"bytes"
	"encoding/json"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightJSON indents raw and, when color is set, colors it for a 256-color
// terminal. Invalid JSON is returned unchanged.
func HighlightJSON(raw []byte, color bool) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	if !color {
		return buf.String()
	}
	var out bytes.Buffer
	if err := quick.Highlight(&out, buf.String(), "json", "terminal256", "monokai"); err != nil {
		return buf.String()
	}
	return out.String()
}
