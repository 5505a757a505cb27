package main

import (
	"github.com/elee1766/threadchat/src/server"
)

// ServeCmd serves the HTTP API until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to server.addr from config)"`
}

func (c *ServeCmd) Run(cli *CLI, rt *Runtime) error {
	a, err := cli.openApp(rt, false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Service:        a,
		Logger:         a.Logger,
		CORSOrigins:    a.Config.Server.CORSOrigins,
		RequestTimeout: a.Config.Server.RequestTimeout.Std(),
	})
	if err != nil {
		return err
	}

	addr := c.Addr
	if addr == "" {
		addr = a.Config.Server.Addr
	}
	return srv.ListenAndServe(rt.Ctx, addr)
}
