package tool_stockprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/elee1766/threadchat/src/agent"
	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/schema"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Tool name constant
const Name = "get_stock_price"

const description = `Fetch the latest price quote for a stock symbol (e.g. AAPL, TSLA)
using Alpha Vantage. Returns the provider's GLOBAL_QUOTE response as is.`

const DefaultBaseURL = "https://www.alphavantage.co/query"

const maxBodySize = 1 << 20

// Config holds the Alpha Vantage endpoint and key.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type quoter struct {
	cfg Config
}

// Tool returns the get_stock_price tool. The response body is passed through
// untouched, so it is a FuncTool rather than a GenericTool.
func Tool(cfg Config) agent.Tool {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	q := &quoter{cfg: cfg}
	return &agent.FuncTool{
		Name:        Name,
		Description: description,
		Parameters:  Parameters(),
		Executor:    q.execute,
	}
}

// Parameters is the argument schema: a single required symbol.
func Parameters() *jsonschema.Schema {
	return schema.CreateObjectSchema(map[string]*jsonschema.Schema{
		"symbol": schema.CreateStringSchema("Ticker symbol, e.g. AAPL"),
	}, []string{"symbol"})
}

func (q *quoter) execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	var in struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(call.Function.Arguments, &in); err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("failed to parse input: %v", err)), nil
	}
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return aisdk.ErrorResponse("required field 'symbol' is missing"), nil
	}
	if q.cfg.APIKey == "" {
		return aisdk.ErrorResponse("stock price lookup is not configured: missing Alpha Vantage API key"), nil
	}

	u, err := url.Parse(q.cfg.BaseURL)
	if err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("invalid base url: %v", err)), nil
	}
	params := u.Query()
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", q.cfg.APIKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("failed to create request: %v", err)), nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := q.cfg.HTTPClient.Do(req)
	if err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("quote request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("failed to read response: %v", err)), nil
	}
	if resp.StatusCode != http.StatusOK {
		return aisdk.ErrorResponse(fmt.Sprintf("quote request failed with status code: %d", resp.StatusCode)), nil
	}
	if !json.Valid(body) {
		return aisdk.ErrorResponse("quote provider returned invalid JSON"), nil
	}

	q.cfg.Logger.Debug("fetched stock quote", "symbol", symbol, "size", len(body))
	return &aisdk.ToolResponse{Content: body}, nil
}
