package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	newsbreakadapter "github.com/ericfisherdev/adbudget/internal/adapter/driven/newsbreak"
	sqliteadapter "github.com/ericfisherdev/adbudget/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/adbudget/internal/application"
	"github.com/ericfisherdev/adbudget/internal/config"
	"github.com/ericfisherdev/adbudget/internal/crypto"
	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

var rootCmd = &cobra.Command{
	Use:   "adbudgetctl",
	Short: "Manage ad platform credentials and budgets",
	Long: `adbudgetctl reads the same ADBUDGET_ environment variables as the server
and works directly on its database.

Example workflow:
  adbudgetctl keygen                                   # Generate ADBUDGET_TOKEN_ENCRYPTION_KEY
  adbudgetctl credentials add --owner u1 --name Main --token "$TOKEN" --account 1234
  adbudgetctl budget info --owner u1
  adbudgetctl budget recharge --owner u1 1234=250.00`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log service activity to stderr")
}

// app holds the services a command needs and the database they share.
type app struct {
	credentials *application.CredentialService
	budgets     *application.BudgetService
	db          *sqliteadapter.DB
}

func (a *app) Close() error {
	return a.db.Close()
}

// openApp loads configuration, opens and migrates the database and wires the
// services the same way the server does.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	cipher, err := crypto.New(cfg.TokenEncryptionKey)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	clients := application.NewBudgetClientProvider()
	clients.Replace(model.PlatformNewsBreak, newsbreakadapter.NewClient(newsbreakadapter.ClientConfig{
		BaseURL: cfg.NewsBreakBaseURL,
		Timeout: cfg.HTTPTimeout,
	}, logger))

	credentialSvc := application.NewCredentialService(
		sqliteadapter.NewCredentialRepo(db),
		sqliteadapter.NewPlatformRepo(db),
		cipher,
		logger,
	)

	return &app{
		credentials: credentialSvc,
		budgets:     application.NewBudgetService(credentialSvc, clients, logger),
		db:          db,
	}, nil
}
