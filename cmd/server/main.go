package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/config"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/handlers"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/jwt"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/middlewares"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/queue"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/repositories"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/services"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/workers"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-transaction-webhook API
// @version 1.0.0
// @description Microservice for ingesting transaction webhooks and processing them asynchronously
// @host localhost:8080
// @BasePath /v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run initializes the logger, database, Redis, Kafka producer, fallback pool,
// and HTTP server. It sets up routes, applies middleware, and handles
// graceful shutdown including draining outstanding fallback tasks.
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

	// Connect to Redis. The duplicate cache is advisory, so a missing Redis
	// degrades to the database path instead of failing startup.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	var cacheRepo *repositories.TransactionCacheRepository
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnw("Redis unavailable, duplicate cache disabled", "error", err)
		rdb.Close()
	} else {
		cacheRepo = repositories.NewTransactionCacheRepository(rdb, cfg.DedupeTTL)
		defer rdb.Close()
	}

	// Kafka producer for deferred-processing jobs
	kafkaWriter := queue.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer kafkaWriter.Close()

	// Bounded pool for fallback dispatch
	pool := workers.NewPool(cfg.FallbackMaxWorkers)

	// Initialize repositories
	txnWriteRepo := repositories.NewTransactionWriterRepository(db)
	txnReadRepo := repositories.NewTransactionReaderRepository(db)

	// Initialize services
	processor := services.NewTransactionProcessor(txnWriteRepo, txnReadRepo, cfg.ProcessingDelay, cfg.MaxAttempts, cfg.RetryBackoff)
	dispatcher := services.NewQueueDispatcher(kafkaWriter, pool, processor, cfg.EnqueueTimeout)
	var txnCache services.TransactionCache
	if cacheRepo != nil {
		txnCache = cacheRepo
	}
	txnService := services.NewTransactionService(txnWriteRepo, txnReadRepo, txnCache, dispatcher, cfg.StoreTimeout)

	// Initialize JWT service for the operational endpoints
	jwtService := jwt.New(cfg.JWTSecretKey, cfg.JWTExp)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(txnService)
	getTransactionHandler := handlers.NewGetTransactionHandler(txnService)
	listTransactionsHandler := handlers.NewListTransactionsHandler(txnService)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middlewares.SignatureHeader},
	}))
	r.Use(middlewares.LoggingMiddleware(log))

	r.Get("/", healthHandler)

	r.Route("/v1", func(r chi.Router) {
		r.With(middlewares.SignatureMiddleware(cfg.WebhookSigningSecret)).
			Post("/webhooks/transactions", webhookHandler)

		r.Get("/transactions/{transaction_id}", getTransactionHandler)

		// Operational listing, service-token protected
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(jwtService))
			r.Get("/transactions", listTransactionsHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	// Fallback tasks carry deferred work that never reached the queue; give
	// them the rest of the shutdown window before the process exits.
	if outstanding := pool.Outstanding(); outstanding > 0 {
		log.Infof("Draining %d outstanding fallback tasks...", outstanding)
	}
	if err := pool.Wait(shutdownCtx); err != nil {
		log.Errorw("Fallback pool drain incomplete", "outstanding", pool.Outstanding(), "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
