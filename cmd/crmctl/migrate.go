package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateGotoCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, _, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
				return err
			}
			return printVersion(cmd, db.MigrationVersion, cfg.Database.MigrationsPath)
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, _, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
				return err
			}
			return printVersion(cmd, db.MigrationVersion, cfg.Database.MigrationsPath)
		},
	}
}

func newMigrateGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}

			cfg, db, _, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.MigrateToVersion(cfg.Database.MigrationsPath, version); err != nil {
				return err
			}
			return printVersion(cmd, db.MigrationVersion, cfg.Database.MigrationsPath)
		},
	}
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, _, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			return printVersion(cmd, db.MigrationVersion, cfg.Database.MigrationsPath)
		},
	}
}

func parseVersion(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("version must be a positive integer, got %q", raw)
	}
	return uint(v), nil
}

type versionFunc func(migrationsPath string) (uint, bool, error)

func printVersion(cmd *cobra.Command, current versionFunc, path string) error {
	version, dirty, err := current(path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", version, state)
	return nil
}
