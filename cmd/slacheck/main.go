// slacheck runs one SLA sweep against the configured database and prints the
// result as JSON. It exits non-zero when the sweep cannot run. The token
// subcommand mints staff tokens for calling the API.
//
//	go run ./cmd/slacheck --notify --escalate
//	go run ./cmd/slacheck token --user 10
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"complaintdesk/app"
	"complaintdesk/config"
	"complaintdesk/logging"
	"complaintdesk/schema"
	"complaintdesk/service"
	"complaintdesk/worker"
)

func main() {
	_ = godotenv.Load()
	if err := SLACheckCommand(config.LoadConfig()).Execute(); err != nil {
		os.Exit(1)
	}
}

// SLACheckCommand creates the slacheck command
func SLACheckCommand(cfg *config.Config) *cobra.Command {
	var (
		notify    bool
		escalate  bool
		dbConnStr string
	)

	cmd := &cobra.Command{
		Use:   "slacheck",
		Short: "Run one SLA sweep over open complaints",
		Long: `Flag SLA breaches on every open complaint, optionally notifying and
auto-escalating every breached complaint still below dean level.

Examples:
  # Flag breaches only
  slacheck

  # Flag, notify and escalate
  slacheck --notify --escalate

  # Use an explicit database
  slacheck --db "user:pass@tcp(127.0.0.1:3306)/complaints"`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbConnStr != "" {
				cfg.Database.DatabaseURL = dbConnStr
			}
			log := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := service.CheckOptions{Notify: notify, Escalate: escalate}
			return runSLACheck(ctx, cfg, opts, cmd.OutOrStdout(), log)
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "Notify recipients of newly breached complaints")
	cmd.Flags().BoolVar(&escalate, "escalate", false, "Auto-escalate breached complaints below dean level")
	cmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides DATABASE_URL)")

	cmd.AddCommand(TokenCommand(cfg))

	return cmd
}

func runSLACheck(ctx context.Context, cfg *config.Config, opts service.CheckOptions, out io.Writer, log zerolog.Logger) error {
	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("database unavailable")
		return err
	}
	defer db.Close()

	if err := schema.ValidateRequiredColumns(ctx, db, nil, log); err != nil {
		log.Error().Err(err).Msg("schema check failed")
		return err
	}

	core, err := app.New(db, cfg, prometheus.NewRegistry(), log)
	if err != nil {
		return err
	}
	defer core.Dispatcher.Wait()

	return sweep(ctx, core.Services.Check, opts, out, log)
}

func sweep(ctx context.Context, checker worker.Checker, opts service.CheckOptions, out io.Writer, log zerolog.Logger) error {
	result, err := checker.Run(ctx, opts)
	if result != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil && err == nil {
			return encErr
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("SLA sweep failed")
		return fmt.Errorf("SLA sweep failed: %w", err)
	}
	return nil
}
