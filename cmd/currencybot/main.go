package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"currency-bot/internal/bot"
	"currency-bot/internal/cache"
	"currency-bot/internal/config"
	"currency-bot/internal/currency"
	"currency-bot/internal/httpapi"
	"currency-bot/internal/logger"
	"currency-bot/internal/metrics"
	"currency-bot/internal/rates"
	"currency-bot/internal/repository"
	"currency-bot/internal/service"
)

type settingsStore interface {
	service.SettingsStore
	Close() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting currency bot")

	m := metrics.New(prometheus.DefaultRegisterer)

	store, err := openSettingsStore(cfg.Settings, log)
	if err != nil {
		log.Fatalf("settings store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("close settings store")
		}
	}()
	settings := service.NewSettingsService(store, log)

	rateCache := cache.NewRateCache(cfg.Cache.TTL)
	fetcher := rates.NewFetcher(rates.NewProviders(cfg.Providers), rateCache, cfg.Providers.Timeout, m, log)

	directory, err := currency.Load()
	if err != nil {
		log.Fatalf("currency directory: %v", err)
	}
	log.WithField("currencies", directory.Len()).Info("currency directory loaded")

	api, err := bot.NewAPI(cfg.BotToken, cfg.BotDebug, log)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	telegramBot := bot.New(api, fetcher, settings, directory, m, log, bot.Options{
		DefaultBase:   cfg.Defaults.BaseCurrency,
		DefaultAmount: cfg.DefaultAmount(),
		DialogueTTL:   cfg.Dialogue.TTL,
	})

	scheduler := service.NewSchedulerService(time.Local, log)
	if _, err := scheduler.ScheduleInterval(cfg.Cache.Sweep, func() {
		fetcher.ClearExpired()
	}); err != nil {
		log.Fatalf("schedule cache sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		router := httpapi.SetupRouter(fetcher, prometheus.DefaultGatherer, log, gin.ReleaseMode)
		srv = httpapi.NewServer(cfg.Metrics.Addr, router)
		go func() {
			log.WithField("addr", cfg.Metrics.Addr).Info("http server is listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("http server stopped")
			}
		}()
	}

	log.Info("currency bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("bot stopped with error")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("http server forced to shutdown")
		}
	}
	log.Info("shutdown complete")
}

func openSettingsStore(cfg config.SettingsConfig, log *logrus.Logger) (settingsStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := repository.NewDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.WithField("dsn", cfg.DatabaseURL).Info("using sqlite settings store")
		return repository.NewSettingsRepository(db), nil
	default:
		store, err := repository.NewJSONStore(cfg.Path, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
