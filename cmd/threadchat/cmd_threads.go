package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/app"
	"github.com/elee1766/threadchat/src/storage"
	"github.com/elee1766/threadchat/src/theme"
)

// ThreadsCmd lists every stored thread id.
type ThreadsCmd struct {
	JSON bool `help:"Print JSON"`
}

func (c *ThreadsCmd) Run(cli *CLI, rt *Runtime) error {
	store, err := cli.openStore(rt)
	if err != nil {
		return err
	}
	defer store.Close()

	threads, err := store.ListThreads(rt.Ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(rt.Stdout, threads)
	}
	for _, id := range threads {
		fmt.Fprintln(rt.Stdout, id)
	}
	return nil
}

// HistoryCmd prints a thread's messages or checkpoints.
type HistoryCmd struct {
	Thread      string `arg:"" help:"Thread id"`
	Checkpoints bool   `help:"Print the checkpoint chain instead of messages"`
	JSON        bool   `help:"Print JSON"`
}

func (c *HistoryCmd) Run(cli *CLI, rt *Runtime) error {
	if c.Thread == "" {
		return app.ErrThreadIDRequired
	}
	store, err := cli.openStore(rt)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Checkpoints {
		cps, err := store.Checkpoints(rt.Ctx, c.Thread)
		if err != nil {
			return err
		}
		if c.JSON {
			return writeJSON(rt.Stdout, cps)
		}
		return printCheckpoints(rt.Stdout, cps)
	}

	msgs, err := store.Load(rt.Ctx, c.Thread)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(rt.Stdout, msgs)
	}
	printMessages(rt.Stdout, msgs, !cli.NoColor)
	return nil
}

func (cli *CLI) openStore(rt *Runtime) (storage.Saver, error) {
	cfg, logger, err := cli.setup(rt, false)
	if err != nil {
		return nil, err
	}
	logger.Debug("opening store", "path", cfg.Storage.Path, "postgres", cfg.Storage.PostgresURL != "")
	return app.OpenStore(rt.Ctx, cfg.Storage)
}

func printCheckpoints(w io.Writer, cps []storage.Checkpoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tID\tPARENT\tMESSAGES\tSOURCE\tCREATED")
	for _, cp := range cps {
		parent := cp.ParentID
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			cp.Step, cp.ID, parent, cp.MessageCount, cp.Source, cp.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func printMessages(w io.Writer, msgs []*aisdk.Message, color bool) {
	for _, m := range msgs {
		switch m.Role {
		case aisdk.RoleUser:
			fmt.Fprintln(w, theme.UserStyle.Render("you> ")+m.Content)
		case aisdk.RoleAssistant:
			if m.Content != "" {
				fmt.Fprintln(w, theme.AssistantStyle.Render("bot> ")+m.Content)
			}
			for _, call := range m.ToolCalls {
				fmt.Fprintln(w, theme.ToolStyle.Render("  ⚙ "+call.Function.Name))
				fmt.Fprintln(w, theme.HighlightJSON(call.Function.Arguments, color))
			}
		case aisdk.RoleTool:
			fmt.Fprintln(w, theme.ToolStyle.Render("  ← "+m.Name))
			fmt.Fprintln(w, theme.HighlightJSON([]byte(m.Content), color))
		default:
			fmt.Fprintln(w, theme.DimStyle.Render(m.Role+"> "+m.Content))
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
