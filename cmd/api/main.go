package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"example.com/aggregator/internal/api"
	"example.com/aggregator/internal/auth"
	"example.com/aggregator/internal/config"
	"example.com/aggregator/internal/domain"
	"example.com/aggregator/internal/events"
	"example.com/aggregator/internal/persistence"
	"example.com/aggregator/internal/persistence/postgres"
	"example.com/aggregator/internal/provider"
	"example.com/aggregator/internal/registry"
	httptransport "example.com/aggregator/internal/transport/http"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var clientStore registry.Store
	var linkStore domain.LinkStore
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		defer pool.Close()
		clientStore = postgres.NewClientRepository(pool)
		linkStore = postgres.NewLinkRepository(pool)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		clientStore = persistence.NewMemoryClientStore()
		linkStore = persistence.NewMemoryLinkStore()
	}

	var publisher registry.Publisher = registry.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	providers := []domain.Provider{
		provider.NewFitbit(cfg.FitbitURL, log),
		provider.NewGoogleFit(cfg.GoogleFitURL, log),
		provider.NewStrava(cfg.StravaURL, log),
	}

	aggregator := domain.NewService(linkStore, providers, cfg.ProviderTimeout, log)
	reg := registry.NewService(clientStore, publisher)

	authCfg := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.SessionTTL}

	handler := api.NewHandler(aggregator, reg, authCfg, log)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Bearer tokens gate the aggregation routes only; the registry routes
	// are how clients obtain tokens in the first place.
	authMiddleware := auth.NewMiddleware(authCfg, func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/user/")
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Logging(log, authMiddleware.Wrap(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("address", cfg.HTTPAddress).Info("aggregator listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
