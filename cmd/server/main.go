package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"montafix/internal/api"
	"montafix/internal/availability"
	"montafix/internal/config"
	"montafix/internal/database"
	"montafix/internal/export"
	"montafix/internal/metrics"
	"montafix/internal/notify"
	"montafix/internal/wizard"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MONTAFIX_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calendar := availability.NewSource(db, &logger)
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		calendar.UseRedisCache(rdb, cfg.CacheTTL())
		logger.Info().Str("addr", cfg.Redis.Address).Msg("calendar cache enabled")
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tn, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram notifier error")
		}
		notifier = tn
	}

	sessions := wizard.NewSessionStore(cfg.SessionTimeout())
	go sessionJanitor(ctx, sessions, &logger)

	if cfg.Sheets.Enabled {
		sheetsSvc, err := export.NewSheetsService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create sheets service error")
		}
		go sheetsSync(ctx, sheetsSvc, db, &logger)
	}

	backup := database.NewBackupService(db, cfg.Backup, &logger)
	go backup.Start(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(db, calendar, sessions, notifier, api.Options{
		Port:              cfg.Server.Port,
		APIKey:            cfg.Server.APIKey,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}, &logger)

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	logger.Info().Msg("montafix server started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// sessionJanitor drops expired wizard sessions every few minutes.
func sessionJanitor(ctx context.Context, sessions *wizard.SessionStore, logger *zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Cleanup(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("expired wizard sessions cleaned up")
			}
		}
	}
}

// sheetsSync periodically mirrors booking requests into the spreadsheet.
func sheetsSync(ctx context.Context, svc *export.SheetsService, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	sync := func() {
		requests, err := db.ListBookingRequests(ctx, "")
		if err != nil {
			logger.Error().Err(err).Msg("sheets sync: failed to list booking requests")
			return
		}
		if err := svc.SyncBookingRequests(ctx, requests); err != nil {
			logger.Error().Err(err).Msg("sheets sync failed")
		}
	}

	sync()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		}
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
