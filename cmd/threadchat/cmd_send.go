package main

import (
	"fmt"
	"strings"
)

// SendCmd runs a single turn.
type SendCmd struct {
	Thread string   `short:"t" required:"" help:"Thread to send the message on"`
	Text   []string `arg:"" help:"Message text"`
}

func (c *SendCmd) Run(cli *CLI, rt *Runtime) error {
	a, err := cli.openApp(rt, false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.SendMessage(rt.Ctx, c.Thread, strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.Stdout, reply)
	return nil
}
