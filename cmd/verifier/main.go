// Command verifier runs the subsidy eligibility verification service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/AgriSubsidy-Network/verification_layer/internal/app"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/httpapi"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/providers"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage/postgres"
	"github.com/AgriSubsidy-Network/verification_layer/internal/config"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("verifier").WithError(err).Error("load configuration")
		return
	}

	log := logger.New(cfg.Logging).WithField("component", "verifier")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("verifier exited")
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	seed := subsidy.SystemConfig{
		AdminID:         cfg.System.AdminID,
		OracleID:        cfg.System.OracleID,
		VerificationFee: cfg.System.VerificationFee,
	}

	store, cleanup, err := buildStore(ctx, cfg.Database, seed, log)
	if err != nil {
		return err
	}
	defer cleanup()

	provs, err := buildProviders(cfg.Providers, log)
	if err != nil {
		return err
	}

	application, err := app.New(app.Options{
		Store:          store,
		Config:         seed,
		CustodyAccount: cfg.System.CustodyAccount,
		Providers:      provs,
	}, log)
	if err != nil {
		return err
	}

	handler, err := httpapi.NewHandler(application, httpapi.Config{
		RatePerSecond: cfg.Server.RatePerSecond,
		RateBurst:     cfg.Server.RateBurst,
		AccessLogPath: cfg.Server.AccessLogPath,
	}, log)
	if err != nil {
		return err
	}

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("stop application")
		}
	}()

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.Server.Address).Info("verifier listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// buildStore selects PostgreSQL when a DSN is configured and the in-memory
// store otherwise.
func buildStore(ctx context.Context, cfg config.DatabaseConfig, seed subsidy.SystemConfig, log *logger.Logger) (storage.Store, func(), error) {
	if cfg.DSN == "" {
		log.Info("no database configured; using in-memory store")
		return storage.NewMemory(seed), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := postgres.New(db)
	if err := store.Init(ctx, seed); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("using postgres store")
	return store, func() { db.Close() }, nil
}

// buildProviders wires HTTP adapters for every configured endpoint, leaving
// the rest on the in-memory fakes.
func buildProviders(cfg config.ProvidersConfig, log *logger.Logger) (app.Providers, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	var p app.Providers

	if cfg.FarmRegistry.URL != "" {
		farms, err := providers.NewHTTPFarmData(client, cfg.FarmRegistry.URL, cfg.FarmRegistry.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Farms = farms
	}
	if cfg.Policy.URL != "" {
		criteria, err := providers.NewHTTPCriteria(client, cfg.Policy.URL, cfg.Policy.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Criteria = criteria
	}
	if cfg.Oracle.URL != "" {
		oracle, err := providers.NewHTTPOracle(client, cfg.Oracle.URL, cfg.Oracle.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Oracle = oracle
	}
	if cfg.Applications.URL != "" {
		applications, err := providers.NewHTTPApplicationStatus(client, cfg.Applications.URL, cfg.Applications.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Applications = applications
	}
	if cfg.Custody.URL != "" {
		custody, err := providers.NewHTTPCustodian(client, cfg.Custody.URL, cfg.Custody.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Custody = custody
	}
	if cfg.Clock.URL != "" {
		clock, err := providers.NewHTTPClock(client, cfg.Clock.URL, cfg.Clock.APIKey, log)
		if err != nil {
			return app.Providers{}, err
		}
		p.Clock = clock
	}
	return p, nil
}
