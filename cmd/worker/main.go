package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/config"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/queue"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/repositories"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

func main() {
	fmt.Printf("Starting worker version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("worker stopped with error: %v", err)
	}
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run initializes the logger, database, and Kafka consumer group, then
// consumes deferred-processing jobs until a shutdown signal arrives. A job
// picked up before shutdown runs to completion and its offset is committed.
func run(ctx context.Context, cfg *config.Config) error {
	// Initialize logger
	log, err := logger.Initialize(cfg.LogLevel)
	if err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer log.Sync()
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := cfg.PostgresDSN()
	log.Infof("Connecting to PostgreSQL: %s", dsn)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL ping failed: %w", err)
	}

	// Initialize repositories and the processor
	txnWriteRepo := repositories.NewTransactionWriterRepository(db)
	txnReadRepo := repositories.NewTransactionReaderRepository(db)
	processor := services.NewTransactionProcessor(txnWriteRepo, txnReadRepo, cfg.ProcessingDelay, cfg.MaxAttempts, cfg.RetryBackoff)

	// Kafka consumer group
	reader := queue.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	defer reader.Close()

	consumer := queue.NewConsumer(reader, processor, cfg.JobTimeout)

	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log.Infof("Consuming jobs from topic %s as group %s", cfg.KafkaTopic, cfg.KafkaGroupID)
	if err := consumer.Run(ctxShutdown); err != nil {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	log.Info("Worker stopped gracefully")
	return nil
}
