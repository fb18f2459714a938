package main

import (
	"fmt"
	"os"

	"messenger/internal/app"
	"messenger/internal/config"
	"messenger/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const serviceName = "messenger"

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Minimal messaging backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newCheckCmd(), newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger every command shares.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(serviceName, cfg.LogLevel), nil
}

// newSeeder uses SEED_FILE when configured, the built-in users otherwise.
func newSeeder(cfg *config.Config) (*app.Seeder, error) {
	var fixture []byte
	if cfg.SeedFile != "" {
		data, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		fixture = data
	}
	return app.NewSeeder(app.NewBcryptDigest(cfg.BcryptCost), fixture, nil), nil
}
