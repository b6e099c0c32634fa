// Command seed creates a demo account filled with sample data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/database"
	"github.com/tuma-app/tuma/backend/internal/seed"
	"github.com/tuma-app/tuma/backend/internal/server"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/pkg/logger"
)

var (
	email    string
	password string
	reset    bool
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo account with sample clients, quotes, missions and invoices",
	Long: `seed registers the demo account (or signs in to it) and fills every collection
with sample data. Running it again leaves a seeded account untouched unless --reset
is given, which deletes the account's data first.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Getenv("LOG_LEVEL"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&email, "email", seed.DefaultEmail, "Demo account email")
	rootCmd.Flags().StringVar(&password, "password", seed.DefaultPassword, "Demo account password")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Delete the account's existing data before seeding")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is not set: an in-memory store would discard the demo data on exit")
	}
	if reset && cfg.Server.Environment == "production" {
		return errors.New("--reset is refused in production")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}()

	db := client.Database(cfg.MongoDB.Database)
	deps := server.Build(cfg, server.MongoRepos(db), sessions.NewService(sessions.NewMemoryRepository()), nil, nil, nil)

	res, err := seed.Run(ctx, deps, seed.Options{Email: email, Password: password, Reset: reset}, time.Now().UTC())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(out, "%s is already seeded (use --reset to start over)\n", email)
		return nil
	}
	fmt.Fprintf(out, "seeded %s (user %s)\n", email, res.UserID)
	for _, kind := range []string{"clients", "opportunities", "quotes", "missions", "invoices", "events", "tasks", "timeEntries", "documents"} {
		fmt.Fprintf(out, "  %-14s %d\n", kind, res.Created[kind])
	}
	return nil
}
