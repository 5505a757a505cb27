package tool_search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/elee1766/threadchat/src/agent"
)

// Tool name constant
const Name = "web_search"

const description = `Search the web with DuckDuckGo and return the top results.

Use this for current events or facts you are unsure about. Each result has a
title, a url and a short snippet.`

const (
	DefaultBaseURL    = "https://html.duckduckgo.com/html/"
	DefaultRegion     = "us-en"
	DefaultMaxResults = 5
	maxResultsLimit   = 25
)

// Config controls where and how searches are run.
type Config struct {
	BaseURL    string
	Region     string
	MaxResults int
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Input represents the parameters for web_search
type Input struct {
	Query      string `json:"query" required:"true" description:"The search query"`
	MaxResults int    `json:"max_results,omitempty" minimum:"1" maximum:"25" description:"Maximum number of results to return"`
}

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Output represents the response from web_search
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

type searcher struct {
	cfg Config
}

// Tool returns the web_search tool definition using GenericTool
func Tool(cfg Config) (agent.Tool, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "threadchat/1.0"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &searcher{cfg: cfg}
	return agent.NewGenericTool(Name, description, s.handle)
}

func (s *searcher) handle(ctx context.Context, in Input) (Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return Output{}, fmt.Errorf("query must not be empty")
	}
	limit := s.cfg.MaxResults
	if in.MaxResults > 0 {
		limit = min(in.MaxResults, maxResultsLimit)
	}

	form := url.Values{"q": {query}, "kl": {s.cfg.Region}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("search failed with status code: %d", resp.StatusCode)
	}

	results, err := ParseResults(resp.Body, limit)
	if err != nil {
		return Output{}, err
	}

	s.cfg.Logger.Debug("web search completed", "query", query, "results", len(results))
	return Output{Query: query, Results: results}, nil
}

// ParseResults extracts up to limit results from a DuckDuckGo HTML page.
func ParseResults(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := []Result{}
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     resolveLink(href),
			Snippet: strings.Join(strings.Fields(sel.Find(".result__snippet").Text()), " "),
		})
		return len(results) < limit
	})
	return results, nil
}

// resolveLink unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
