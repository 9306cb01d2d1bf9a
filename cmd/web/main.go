package main

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"time"

	"github.com/de-tools/usage-atlas/pkg/server"
	"github.com/de-tools/usage-atlas/pkg/services/billing"
	"github.com/de-tools/usage-atlas/pkg/services/config"
	"github.com/de-tools/usage-atlas/pkg/services/records"
	"github.com/de-tools/usage-atlas/pkg/services/usage"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite"
	sqliteaccount "github.com/de-tools/usage-atlas/pkg/store/sqlite/account"
	sqliteusage "github.com/de-tools/usage-atlas/pkg/store/sqlite/usage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath   string
	ratesPath string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Usage Atlas",
		RunE:  runServer,
	}

	usr, _ := user.Current()
	defaultProfile := fmt.Sprintf("%s/.usage-atlas.ini", usr.HomeDir)
	defaultRates := fmt.Sprintf("%s/.usage-atlas-rates.yaml", usr.HomeDir)

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", defaultProfile,
		"Path to the store profile file (default is $HOME/.usage-atlas.ini)")
	rootCmd.Flags().StringVar(&ratesPath, "rates", defaultRates,
		"Path to the billing rate catalog (default is $HOME/.usage-atlas-rates.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	registry, err := config.NewRegistry(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to create config registry: %w", err)
	}

	settings, err := registry.GetStoreSettings(ctx, "default")
	if err != nil {
		return fmt.Errorf("failed to resolve store settings: %w", err)
	}

	db, err := sqlite.NewDB(settings)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}

	accountStore, err := sqliteaccount.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create account store: %w", err)
	}
	usageStore, err := sqliteusage.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create usage store: %w", err)
	}

	catalog, err := billing.LoadCatalog(ratesPath)
	if err != nil {
		return fmt.Errorf("failed to load rate catalog: %w", err)
	}

	resolver := records.NewResolver(accountStore, usageStore)
	aggregator := usage.NewAggregator(resolver, resolver, catalog)

	stats, err := usageStore.GetUsageStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read usage stats: %w", err)
	}
	logger.Info().
		Int64("records", stats.RecordsCount).
		Msg("record store opened")

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Reports: aggregator,
			Plans:   catalog,
		},
	})

	return api.Start()
}
