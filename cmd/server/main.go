// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aibetix/internal/audit"
	"aibetix/internal/audit/outbox"
	outboxworker "aibetix/internal/audit/outbox/worker"
	auditstore "aibetix/internal/audit/store"
	"aibetix/internal/compliance"
	compliancehandler "aibetix/internal/compliance/handler"
	"aibetix/internal/geo"
	identityservice "aibetix/internal/identity/service"
	identitystore "aibetix/internal/identity/store"
	"aibetix/internal/jwt_token"
	"aibetix/internal/platform/config"
	"aibetix/internal/platform/database"
	"aibetix/internal/platform/httpserver"
	"aibetix/internal/platform/kafka/producer"
	"aibetix/internal/platform/logger"
	"aibetix/internal/platform/metrics"
	"aibetix/internal/platform/redis"
	"aibetix/internal/platform/tracing"
	"aibetix/internal/ratelimit"
	httptransport "aibetix/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing aibetix compliance gateway",
		"addr", cfg.Addr,
		"geo_lookup_url", cfg.GeoLookupBaseURL,
	)

	m := metrics.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if rdb == nil {
		log.Warn("REDIS_URL not set, rate limiting is per-process only")
	}

	// Stores. Postgres when a database is configured, in-memory otherwise.
	var (
		idStore identityservice.Store
		locs    audit.RecordStore
		obStore outbox.Store
	)
	if pool != nil {
		idStore = identitystore.NewPostgres(pool.DB())
		locs = auditstore.NewPostgres(pool.DB())
		obStore = outbox.NewPostgres(pool.DB())
	} else {
		idStore = identitystore.NewMemory()
		locs = auditstore.NewMemory()
		obStore = outbox.NewMemory()
	}

	recorder := audit.NewRecorder(locs, log, audit.WithRecorderMetrics(m))

	// Audit events flow through the outbox; a worker drains it to Kafka.
	// Without brokers the worker still marks entries processed via the
	// noop producer, so the table does not grow unbounded in dev.
	var prod producer.Publisher
	if cfg.Kafka.Brokers != "" {
		kp, err := producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		prod = kp
	} else {
		log.Warn("KAFKA_BROKERS not set, audit events are not published")
		prod = producer.NewNoopProducer(log)
	}

	worker := outboxworker.New(obStore, prod, log,
		outboxworker.WithTopic(cfg.Kafka.Topic),
		outboxworker.WithMetrics(m),
	)
	worker.Start()

	// Events ride the durable outbox when a database backs it; otherwise they
	// go straight to the structured log.
	var auditPublisher audit.Publisher = outbox.NewPublisher(obStore)
	if pool == nil {
		auditPublisher = audit.NewLogPublisher(log)
	}

	resolver := geo.NewIPAPIClient(cfg.GeoLookupBaseURL, cfg.GeoLookupTimeout, log, m)
	geoEvaluator := geo.NewEvaluator(resolver, log, m)

	identitySvc := identityservice.New(idStore, log,
		identityservice.WithAuditPublisher(auditPublisher),
		identityservice.WithMetrics(m),
	)

	complianceSvc := compliance.New(geoEvaluator, identitySvc, recorder, log,
		compliance.WithMetrics(m),
		compliance.WithTracer(tracing.NewOtel("aibetix/compliance")),
	)

	handler := compliancehandler.New(complianceSvc, identitySvc, log)

	var limiter ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.NewRedis(rdb.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	rl := ratelimit.NewMiddleware(limiter, log, m)

	var health []httptransport.HealthChecker
	if pool != nil {
		health = append(health, pool)
	}
	if rdb != nil {
		health = append(health, rdb)
	}

	router := httptransport.New(httptransport.RouterConfig{
		Logger:         log,
		TokenValidator: jwt_token.NewValidator(cfg.JWTSigningKey),
		AdminTokenHash: cfg.AdminTokenHash,
		Compliance:     handler,
		RateLimit:      rl,
		Metrics:        m,
		Health:         health,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	shutdownPipeline(ctx, log, worker, recorder, prod, pool, rdb)

	log.Info("server stopped")
}

// shutdownPipeline flushes the audit path in dependency order: stop accepting
// new records, drain the outbox to Kafka, then release connections.
func shutdownPipeline(
	ctx context.Context,
	log *slog.Logger,
	worker *outboxworker.Worker,
	recorder *audit.Recorder,
	prod producer.Publisher,
	pool *database.Pool,
	rdb *redis.Client,
) {
	recorder.Close()

	if err := worker.Stop(ctx); err != nil {
		log.Warn("outbox worker stopped with pending entries", "error", err)
	}

	if err := prod.Close(); err != nil {
		log.Warn("kafka producer close failed", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}
