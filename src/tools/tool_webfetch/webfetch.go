package tool_webfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/elee1766/threadchat/src/agent"
)

// Tool name constant
const Name = "web_fetch"

const description = `Fetch a web page and return its content as markdown, plain text or raw html.

Use it to read a page found with web_search. Only http and https URLs are
supported. Long pages are truncated.`

const (
	defaultMaxBytes = 5 * 1024 * 1024
	defaultMaxChars = 20000
)

// Config controls fetching limits.
type Config struct {
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
	// MaxBytes caps how much of the body is read.
	MaxBytes int64
	// MaxChars caps the content handed back to the model.
	MaxChars int
}

// Input represents the parameters for web_fetch
type Input struct {
	URL    string `json:"url" required:"true" description:"The URL to fetch content from"`
	Format string `json:"format,omitempty" enum:"markdown,text,html" description:"Output format, markdown by default"`
}

// Output represents the response from web_fetch
type Output struct {
	Content     string `json:"content"`
	StatusCode  int    `json:"status_code"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Truncated   bool   `json:"truncated,omitempty"`
}

type fetcher struct {
	cfg Config
}

// Tool returns the web_fetch tool definition using GenericTool
func Tool(cfg Config) (agent.Tool, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "threadchat/1.0"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &fetcher{cfg: cfg}
	return agent.NewGenericTool(Name, description, f.handle)
}

func (f *fetcher) handle(ctx context.Context, input Input) (Output, error) {
	format := strings.ToLower(input.Format)
	if format == "" {
		format = "markdown"
	}
	if format != "text" && format != "markdown" && format != "html" {
		return Output{}, fmt.Errorf("format must be one of: markdown, text, html")
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return Output{}, fmt.Errorf("URL must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes))
	if err != nil {
		return Output{}, fmt.Errorf("failed to read response: %v", err)
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")
	isHTML := strings.Contains(contentType, "text/html")

	switch {
	case format == "text" && isHTML:
		if text, err := extractText(content); err != nil {
			f.cfg.Logger.Warn("failed to extract text from HTML, returning raw content", "error", err)
		} else {
			content = text
		}
	case format == "markdown" && isHTML:
		if markdown, err := toMarkdown(content); err != nil {
			f.cfg.Logger.Warn("failed to convert HTML to markdown, returning raw content", "error", err)
		} else {
			content = markdown
		}
	case format == "markdown" && strings.Contains(contentType, "application/json"):
		content = "```json\n" + content + "\n```"
	}

	out := Output{
		Content:     content,
		StatusCode:  resp.StatusCode,
		URL:         resp.Request.URL.String(),
		ContentType: contentType,
	}
	if r := []rune(out.Content); len(r) > f.cfg.MaxChars {
		out.Content = string(r[:f.cfg.MaxChars])
		out.Truncated = true
	}

	f.cfg.Logger.Debug("fetched web content", "url", input.URL, "status", resp.StatusCode, "size", len(body), "format", format)
	return out, nil
}

func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func toMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript")
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return markdown, nil
}
