// Command cmsctl runs operator tasks against the CMS database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/config"
	"github.com/nekogravitycat/visa-cms-backend/internal/db"
	"github.com/nekogravitycat/visa-cms-backend/internal/logger"
)

// session is populated by the root command before any subcommand runs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rt := &session{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Operator tools for the visa CMS backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			l, err := logger.New(logLevel, cfg.IsProduction())
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(l)

			pool, err := db.NewPool(cmd.Context(), cfg.DBDSN, db.WithMaxConns(2))
			if err != nil {
				return err
			}

			rt.cfg, rt.logger, rt.pool = cfg, l, pool
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.pool != nil {
				rt.pool.Close()
			}
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newMigrateCmd(rt),
		newImportCmd(rt),
		newPendingDeletionsCmd(rt),
	)
	return cmd
}
