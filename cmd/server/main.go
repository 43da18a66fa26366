package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/edi-gateway/internal/api"
	"github.com/ignite/edi-gateway/internal/audit"
	"github.com/ignite/edi-gateway/internal/config"
	"github.com/ignite/edi-gateway/internal/dedup"
	"github.com/ignite/edi-gateway/internal/dlq"
	"github.com/ignite/edi-gateway/internal/mapping"
	"github.com/ignite/edi-gateway/internal/pipeline"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
	"github.com/ignite/edi-gateway/internal/ratelimit"
	"github.com/ignite/edi-gateway/internal/repository/postgres"
	"github.com/ignite/edi-gateway/internal/shopify"
	"github.com/ignite/edi-gateway/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.Host
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("connected to database")

	// Raw file storage: S3 in production, in-memory for local runs.
	var store storage.Store
	if cfg.S3.Enabled {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		store = s3Store
		logger.Info("using S3 storage", "bucket", cfg.S3.Bucket)
	} else {
		store = storage.NewMemoryStore()
		logger.Warn("S3 disabled, using in-memory storage; raw files will not survive restarts")
	}

	// Redis is optional; without it duplicate POs are retransmitted and
	// rely on downstream idempotency attributes.
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, deduplication disabled", "error", err.Error())
			redisClient = nil
		}
	}
	marker := dedup.NewMarker(redisClient, 0)

	registry, err := mapping.LoadDir(cfg.Mappings.Directory)
	if err != nil {
		log.Fatalf("Failed to load mapping profiles: %v", err)
	}
	logger.Info("loaded mapping profiles", "profiles", registry.Keys())

	bucket := ratelimit.NewBucket(cfg.Shopify.BucketCapacity, cfg.Shopify.RefillInterval())
	defer bucket.Close()

	auditRecorder := audit.NewRecorder(postgres.NewAuditRepo(db))
	dlqService := dlq.NewService(postgres.NewDeadLetterRepo(db))
	transmitter := shopify.NewTransmitter(cfg.Shopify, bucket, postgres.NewPlatformRepo(db))

	orchestrator := pipeline.New(store, registry, auditRecorder, dlqService,
		transmitter, marker, cfg.Pipeline.MaxInFlight)

	handlers := api.NewHandlers(orchestrator, registry, auditRecorder, dlqService, bucket)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", host, port)
	go func() {
		logger.Info("EDI gateway listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down, draining in-flight files")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	orchestrator.Wait()
	logger.Info("shutdown complete")
}
