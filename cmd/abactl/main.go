// Command abactl runs operator tasks against the tracker database:
// schema migrations, account backups and milestone checks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/noah-isme/aba-tracker-api/internal/app"
	"github.com/noah-isme/aba-tracker-api/pkg/config"
	"github.com/noah-isme/aba-tracker-api/pkg/database"
	"github.com/noah-isme/aba-tracker-api/pkg/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd(openRuntime).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRuntime connects using the same environment as the API server.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.AutoMigrate = false

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		return nil, err
	}
	return &runtime{
		Backup:    container.Backup,
		Analytics: container.Analytics,
		Migrate: func(ctx context.Context) ([]string, error) {
			return database.Migrate(ctx, container.DB)
		},
		Close: func() {
			container.Close()
			_ = logr.Sync()
		},
	}, nil
}
