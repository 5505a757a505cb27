package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/app"
	"github.com/elee1766/threadchat/src/executor"
	"github.com/elee1766/threadchat/src/theme"
)

// ChatCmd is an interactive read-eval loop over one thread.
type ChatCmd struct {
	Thread    string `short:"t" help:"Thread to resume (a new one is created if omitted)"`
	ShowTools bool   `default:"true" negatable:"" help:"Print tool calls and results"`
}

func (c *ChatCmd) Run(cli *CLI, rt *Runtime) error {
	var callbacks *executor.Callbacks
	if c.ShowTools {
		callbacks = toolPrinter(rt.Stdout)
	}
	a, err := cli.openApp(rt, true, callbacks)
	if err != nil {
		return err
	}
	defer a.Close()

	thread := c.Thread
	if thread == "" {
		thread = a.NewThreadID()
	}
	info := a.Model.GetModelInfo()
	fmt.Fprintln(rt.Stdout, theme.TitleStyle.Render("threadchat"), theme.DimStyle.Render(fmt.Sprintf("%s/%s thread %s", info.Provider, info.ID, thread)))
	fmt.Fprintln(rt.Stdout, theme.DimStyle.Render("/new starts a new thread, /exit quits"))

	scanner := bufio.NewScanner(rt.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(rt.Stdout, theme.UserStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(rt.Stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/new":
			thread = a.NewThreadID()
			fmt.Fprintln(rt.Stdout, theme.DimStyle.Render("thread "+thread))
			continue
		}

		reply, err := a.SendMessage(rt.Ctx, thread, line)
		if err != nil {
			if rt.Ctx.Err() != nil {
				return rt.Ctx.Err()
			}
			// a failed turn leaves the thread usable
			if errors.Is(err, app.ErrThreadBusy) || isTurnError(err) {
				fmt.Fprintln(rt.Stdout, theme.ErrorStyle.Render("error:"), err)
				continue
			}
			return err
		}
		fmt.Fprintln(rt.Stdout, theme.AssistantStyle.Render("bot> ")+reply)
	}
}

func isTurnError(err error) bool {
	var modelErr *executor.ModelError
	var limitErr *executor.TurnLimitError
	return errors.As(err, &modelErr) || errors.As(err, &limitErr)
}

// toolPrinter reports tool activity of a turn as one line per event.
func toolPrinter(w io.Writer) *executor.Callbacks {
	return &executor.Callbacks{
		OnToolCall: func(call aisdk.ToolCall) {
			fmt.Fprintln(w, theme.ToolStyle.Render(fmt.Sprintf("  ⚙ %s %s", call.Function.Name, theme.Preview(call.Function.ArgumentsString(), 80))))
		},
		OnToolResult: func(call aisdk.ToolCall, result *aisdk.ToolResponse) {
			style := theme.ToolStyle
			if result.IsError {
				style = theme.ErrorStyle
			}
			fmt.Fprintln(w, style.Render(fmt.Sprintf("  ← %s %s", call.Function.Name, theme.Preview(string(result.Content), 80))))
		},
	}
}
