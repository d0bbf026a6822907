package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"custodia/internal/audit"
	auditkafka "custodia/internal/audit/kafka"
	"custodia/internal/factory"
	"custodia/internal/ledger"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/postgres"
	platformredis "custodia/internal/platform/redis"
	"custodia/internal/platform/token"
	"custodia/internal/registry"
	registrycache "custodia/internal/registry/cache"
	httptransport "custodia/internal/transport/http"
	"custodia/internal/vault"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	ctx := context.Background()

	var (
		vaultStore    vault.Store    = vault.NewInMemoryStore()
		registryStore registry.Store = registry.NewInMemoryStore()
		eventStore    audit.Store    = audit.NewInMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		vaultStore = vault.NewPostgres(db)
		registryStore = registry.NewPostgres(db)
		eventStore = audit.NewPostgres(db)
	}

	events := audit.NewPublisher(eventStore, log)
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		events = events.WithSink(sink)
	}

	registryAddr, err := factory.NewAddress()
	if err != nil {
		log.Error("registry address generation failed", "error", err.Error())
		os.Exit(1)
	}
	registrySvc := registry.NewService(registryAddr, registryStore, log)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		registrySvc = registrySvc.WithCache(registrycache.NewRedis(redisClient.Client))
	}

	bank := ledger.NewBank()
	vaultSvc := vault.NewService(vaultStore, bank, registrySvc, events, m, log)
	vaultFactory := factory.New(vaultStore, m, log)
	tokenSvc := token.NewService(cfg.JWTSigningKey, "custodia")

	router := httptransport.NewRouter(
		httptransport.NewVaultHandler(vaultSvc, vaultFactory, tokenSvc, log),
		httptransport.NewRegistryHandler(registrySvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting custodia", "addr", cfg.Addr, "registry", registryAddr.String())

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
