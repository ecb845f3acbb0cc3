package main

import (
	"context"
	"fmt"
	"os"

	"bread-daily-service/config"
	"bread-daily-service/storage"
	"bread-daily-service/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bread-daily",
	Short: "BreadDaily core service",
	Long: `BreadDaily keeps a single user's faith progress on this device, serves
mood-based devotionals and runs the moderated community feed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, progressCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the key-value backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (storage.KVStore, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		if err := utils.EnsureDataDir(cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to ensure data dir: %w", err)
		}
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return store, nil
	case config.DriverR2:
		client, err := utils.NewR2Client(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		store, err := storage.NewR2Store(client, cfg.R2Bucket, cfg.R2Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
