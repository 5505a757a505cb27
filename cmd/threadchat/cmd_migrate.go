package main

import (
	"fmt"

	"github.com/elee1766/threadchat/src/storage"
)

// MigrateCmd opens the store, which applies pending migrations.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(cli *CLI, rt *Runtime) error {
	store, err := cli.openStore(rt)
	if err != nil {
		return err
	}
	defer store.Close()

	db, ok := store.(*storage.DB)
	if !ok {
		fmt.Fprintln(rt.Stdout, "Migrations applied")
		return nil
	}
	versions, err := db.AppliedMigrations(rt.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "Database: %s\n", db.Path())
	fmt.Fprintf(rt.Stdout, "Applied migrations: %v\n", versions)
	return nil
}
