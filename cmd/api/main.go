package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/adapter/memory"
	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/intake"
	"server/internal/ledger"
	"server/internal/report"
)

type stores struct {
	donations domain.DonationRepository
	directory domain.DirectoryRepository
	pinger    handlers.Pinger
	close     func()
}

func openStores(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.StorageDriver == infra.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		donations := memory.NewDonationStore()
		return &stores{
			donations: donations,
			directory: &memory.Directory{},
			pinger:    donations,
			close:     func() {},
		}, nil
	}
	pool, err := infra.NewDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)
	return &stores{
		donations: repo.NewDonationRepository(runner),
		directory: repo.NewDirectoryRepository(runner),
		pinger:    runner,
		close:     pool.Close,
	}, nil
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogFile)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer st.close()

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	ledgerSvc := ledger.NewService(st.donations, logger.With().Str("component", "ledger").Logger())
	registry, err := intake.NewRegistry(intake.RegistryConfig{
		MaxSessions: int64(cfg.IntakeMaxSessions),
		SessionTTL:  cfg.IntakeSessionTTL,
		QRTimeout:   cfg.QRTimeout,
		Panel:       intake.PanelConfig{PayeeVPA: cfg.QRPayeeVPA, PayeeName: cfg.QRPayeeName},
		Clock:       intake.SystemClock,
	}, ledgerSvc, logger.With().Str("component", "intake").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build intake registry")
	}
	defer registry.Close()

	reports := report.NewService(ledgerSvc, st.directory, logger.With().Str("component", "report").Logger())
	app := handlers.NewApp(ledgerSvc, registry, reports, st.pinger, logger)

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   resolver.Lookup(),
	})
	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("storage", cfg.StorageDriver).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
