package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vehicletag/registration-node/internal/api"
	"github.com/vehicletag/registration-node/internal/buildinfo"
	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/config"
	"github.com/vehicletag/registration-node/internal/core/services"
	"github.com/vehicletag/registration-node/internal/db"
	"github.com/vehicletag/registration-node/internal/gateways"
	"github.com/vehicletag/registration-node/internal/health"
	"github.com/vehicletag/registration-node/internal/log"
	"github.com/vehicletag/registration-node/internal/providers"
	"github.com/vehicletag/registration-node/internal/pubsub"
	"github.com/vehicletag/registration-node/internal/redis"
	"github.com/vehicletag/registration-node/internal/repositories"
	"github.com/vehicletag/registration-node/pkg/http"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout))
	defer cancel()

	if err := cfg.Sanitize(ctx); err != nil {
		log.Error(ctx, "there are errors in the configuration that prevent server to start", "err", err)
		return
	}

	storage, err := db.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Error(ctx, "cannot connect to database", "err", err)
		return
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error(ctx, "closing database", "err", err)
		}
	}()

	var (
		cachex    cache.Cache
		ps        pubsub.Client
		rdbHealth health.Ping
	)
	if cfg.Cache.RedisUrl != "" {
		rdb, err := redis.Open(ctx, cfg.Cache.RedisUrl)
		if err != nil {
			log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.Cache.RedisUrl)
			return
		}
		cachex = cache.NewRedisCache(rdb)
		ps = pubsub.NewRedis(rdb)
		rdbHealth = health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		log.Warn(ctx, "no redis url configured, running with in memory cache and in process events")
		cachex = cache.NewMemoryCache()
		ps = pubsub.NewMock()
		rdbHealth = health.PingFunc(func(context.Context) error { return nil })
	}

	registrationRepo := repositories.NewRegistration(storage, cachex)
	eventRepo := repositories.NewStageEvents(storage)
	sessionRepo := repositories.NewSessionCached(cachex, cfg.Issuer.SessionTTL)
	flowRepo := repositories.NewFlowCached(cachex, 0)

	issuer := gateways.NewIssuerClient(http.DefaultHTTPClientWithRetry, cfg.Issuer.BaseURL, cfg.Issuer.AgentID, cfg.Issuer.APIKey)
	identity := providers.NewContextIdentity()

	registrationService := services.NewRegistration(registrationRepo, eventRepo, ps, identity)
	uploadService := services.NewUploads(registrationRepo, sessionRepo, issuer)
	continuityService := services.NewContinuity(issuer, sessionRepo, registrationRepo)
	guard := services.NewSubmissionGuard()

	status := health.New(map[string]health.Ping{
		"db": health.PingFunc(func(ctx context.Context) error {
			return storage.Ping(ctx)
		}),
		"cache": rdbHealth,
	})

	mux := chi.NewRouter()
	server := api.NewServer(cfg, registrationService, uploadService, continuityService, issuer, flowRepo, eventRepo, guard, status)
	server.Routes(ctx, mux)

	httpServer := &nethttp.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info(ctx, fmt.Sprintf("server started on port:%d", cfg.ServerPort), "revision", buildinfo.Revision())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error(ctx, "starting http server", "err", err)
		}
	}()

	<-quit
	log.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutting down http server", "err", err)
	}
}
