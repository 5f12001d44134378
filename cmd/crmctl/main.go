package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Kanban CRM administration",
		Long:          "crmctl manages the Kanban CRM schema and provisions boards outside the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newBoardsCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crmctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// connect loads the configuration and opens the database
func connect() (*config.Config, *database.DB, zerolog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, log, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, log, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
