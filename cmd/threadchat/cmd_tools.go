package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/elee1766/threadchat/src/theme"
	"github.com/elee1766/threadchat/src/tools"
	tool_stockprice "github.com/elee1766/threadchat/src/tools/tool_stockprice"
)

// ToolsCmd lists the configured tools.
type ToolsCmd struct {
	All    bool `help:"List every available tool, not only the enabled ones"`
	Schema bool `short:"s" help:"Print each tool's parameter schema"`
}

func (c *ToolsCmd) Run(cli *CLI, rt *Runtime) error {
	cfg, logger, err := cli.setup(rt, false)
	if err != nil {
		return err
	}

	enabled := cfg.Tools.Enabled
	if len(enabled) == 0 {
		enabled = tools.DefaultEnabled
	}
	names := enabled
	if c.All {
		names = tools.Names()
	}

	tb, err := tools.Registry(tools.Options{
		Enabled:    names,
		Logger:     logger,
		StockPrice: tool_stockprice.Config{APIKey: cfg.Tools.AlphaVantageAPIKey},
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(rt.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tDESCRIPTION")
	for _, tool := range tb.Tools() {
		on := "no"
		if slices.Contains(enabled, tool.GetName()) {
			on = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", tool.GetName(), on, theme.Preview(tool.GetDescription(), 70))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.Schema {
		for _, tool := range tb.Tools() {
			raw, err := json.Marshal(tool.GetParameters())
			if err != nil {
				return fmt.Errorf("failed to encode schema of %s: %w", tool.GetName(), err)
			}
			fmt.Fprintln(rt.Stdout)
			fmt.Fprintln(rt.Stdout, theme.TitleStyle.Render(tool.GetName()))
			fmt.Fprintln(rt.Stdout, theme.HighlightJSON(raw, !cli.NoColor))
		}
	}
	return nil
}
