// Server entrypoint. main wires configuration, storage, services, and the
// HTTP router, then runs until interrupted. Every backend is optional in
// development: without DATABASE_URL the stores are in-memory, without
// REDIS_URL lockout counting is in-process, without KAFKA_BROKERS the audit
// trail stays in the store alone.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	authhandler "felicity/internal/auth/handler"
	"felicity/internal/auth/lockout"
	authmetrics "felicity/internal/auth/metrics"
	authservice "felicity/internal/auth/service"
	eventhandler "felicity/internal/event/handler"
	eventmetrics "felicity/internal/event/metrics"
	eventservice "felicity/internal/event/service"
	eventstore "felicity/internal/event/store"
	httpapi "felicity/internal/http"
	identityhandler "felicity/internal/identity/handler"
	identitymetrics "felicity/internal/identity/metrics"
	"felicity/internal/identity/models"
	identityservice "felicity/internal/identity/service"
	identitystore "felicity/internal/identity/store"
	"felicity/internal/jwttoken"
	"felicity/internal/platform/config"
	"felicity/internal/platform/httpserver"
	"felicity/internal/platform/logger"
	"felicity/internal/platform/postgres"
	platformredis "felicity/internal/platform/redis"
	audit "felicity/pkg/platform/audit"
	"felicity/pkg/platform/audit/publisher"
	"felicity/pkg/platform/audit/sink"
	auditmemory "felicity/pkg/platform/audit/store/memory"
	auditpostgres "felicity/pkg/platform/audit/store/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Environment)
	slog.SetDefault(log)

	// Storage. Postgres when configured, in-memory otherwise.
	var (
		pool       *pgxpool.Pool
		identities identityservice.Store
		events     eventservice.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err = postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		// The audit store keeps its own database/sql handle; its writes
		// must not compete with request traffic for pool connections.
		auditDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer auditDB.Close()

		identities = identitystore.NewPostgres(pool)
		events = eventstore.NewPostgres(pool)
		auditStore = auditpostgres.New(auditDB)
		log.Info("storage configured", "backend", "postgres")
	} else {
		identities = identitystore.NewInMemory()
		events = eventstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Audit trail. Kafka fans out alongside the store when brokers are set.
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := sink.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		auditStore = audit.Fanout{auditStore, kafkaSink}
		log.Info("audit sink configured", "brokers", cfg.KafkaBrokers, "topic", cfg.AuditTopic)
	}

	publisherOpts := []publisher.Option{publisher.WithLogger(log)}
	if cfg.IsProduction() {
		publisherOpts = append(publisherOpts, publisher.WithAsyncBuffer(256))
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisherOpts...)
	defer auditPublisher.Close()

	// Lockout counting. Redis when configured so counts survive restarts
	// and are shared across replicas.
	var lockoutStore lockout.Store
	if redisClient, err := platformredis.New(ctx, cfg.RedisURL); err != nil {
		return err
	} else if redisClient != nil {
		defer redisClient.Close()
		lockoutStore = lockout.NewRedisStore(redisClient.Client)
		log.Info("lockout store configured", "backend", "redis")
	} else {
		lockoutStore = lockout.NewInMemoryStore()
		log.Warn("REDIS_URL not set, lockout counts are per-process")
	}

	rules := models.Rules{
		EmailPattern:                   cfg.CompiledEmailPattern(),
		InstituteName:                  cfg.InstituteName,
		InstituteEmailDomain:           cfg.InstituteEmailDomain,
		RequireInstituteOrganizerEmail: cfg.RequireInstituteOrganizerEmail,
	}

	identitySvc := identityservice.New(identities, rules,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(auditPublisher),
		identityservice.WithMetrics(identitymetrics.New()),
	)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := identitySvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		log.Info("admin account ensured", "email", cfg.AdminEmail)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenTTL)

	authSvc := authservice.New(identities, tokens,
		authservice.WithLockout(lockout.NewService(lockoutStore, cfg.LockoutAttempts, cfg.LockoutWindow)),
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(authmetrics.New()),
	)

	eventSvc := eventservice.New(events, identities,
		eventservice.WithLogger(log),
		eventservice.WithAuditPublisher(auditPublisher),
		eventservice.WithMetrics(eventmetrics.New()),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Identity:  identityhandler.New(identitySvc, log),
		Auth:      authhandler.New(authSvc, log, cfg.IsProduction()),
		Event:     eventhandler.New(eventSvc, log),
		Validator: tokens,
		Logger:    log,
		Pool:      pool,
	})

	srv := httpserver.New(cfg.Addr, router)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
