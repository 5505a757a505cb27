package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/elee1766/threadchat/src/theme"
)

// CLI represents the main CLI structure
type CLI struct {
	Config    string `short:"c" type:"path" help:"Config file (.toml or .json)"`
	EnvFile   string `type:"path" help:"Dotenv file to read (default .env)"`
	LogLevel  string `help:"Log level (debug, info, warn, error)"`
	LogFormat string `help:"Log format (text, json)"`
	Provider  string `short:"p" help:"Model provider (groq, openrouter, openai, anthropic)"`
	Model     string `short:"m" help:"Model to use"`
	DB        string `type:"path" help:"SQLite database path"`
	NoColor   bool   `help:"Disable colored output (also set by NO_COLOR)"`

	Chat    ChatCmd    `cmd:"" help:"Start an interactive chat"`
	Send    SendCmd    `cmd:"" help:"Send a single message and print the reply"`
	Threads ThreadsCmd `cmd:"" help:"List conversation threads"`
	History HistoryCmd `cmd:"" help:"Show the messages of a thread"`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP API"`
	Tools   ToolsCmd   `cmd:"" help:"List the tools offered to the model"`
	Migrate MigrateCmd `cmd:"" help:"Open the database and apply migrations"`
}

// Runtime is bound into every command's Run.
type Runtime struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("threadchat"),
		kong.Description("Tool-using chat assistant with resumable threads"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return ExitUsage
	}

	if os.Getenv("NO_COLOR") != "" {
		cli.NoColor = true
	}
	if cli.NoColor {
		theme.DisableColor()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &Runtime{Ctx: ctx, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	if err := kctx.Run(&cli, rt); err != nil {
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("Error:"), err)
		return ExitCode(err)
	}
	return ExitSuccess
}
