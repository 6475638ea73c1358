package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/config"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
)

// Schema setup runs once at deployment, decoupled from request-handling
// startup: the server and worker assume the transactions table exists.
func main() {
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

func run(cfg *config.Config) error {
	l, err := logger.Initialize(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer l.Sync()

	sourceURL := fmt.Sprintf("file://%s", cfg.MigrationsPath)
	l.Infof("Applying migrations from %s", sourceURL)

	m, err := migrate.New(sourceURL, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			l.Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	l.Info("Migrations applied")
	return nil
}
