package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnema/clawfarm/internal/adapters/credfile"
	"github.com/bnema/clawfarm/internal/adapters/dashboard"
	"github.com/bnema/clawfarm/internal/adapters/openrouter"
	"github.com/bnema/clawfarm/internal/adapters/plaza"
	"github.com/bnema/clawfarm/internal/adapters/render/report"
	"github.com/bnema/clawfarm/internal/adapters/state"
	"github.com/bnema/clawfarm/internal/application"
	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/obs"
)

func newFarmCmd(app *app) *cobra.Command {
	var noDashboard bool

	cmd := &cobra.Command{
		Use:   "farm",
		Short: "Farm trust across every configured account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runFarm(ctx, cmd, app, noDashboard)
		},
	}

	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "disable the status dashboard server")

	return cmd
}

func runFarm(ctx context.Context, cmd *cobra.Command, app *app, noDashboard bool) error {
	cfg := app.cfg
	logger := app.logger()

	keys, err := credfile.LoadKeys(cfg.APIKeysFile)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s is empty", domain.ErrNoAPIKeys, cfg.APIKeysFile)
	}

	proxies, err := credfile.LoadProxies(cfg.ProxiesFile)
	if err != nil {
		logger.Warn("proxy list unavailable, all accounts run unproxied", zap.Error(err))
	}

	logger.Info("farm starting",
		zap.Int("accounts", len(keys)),
		zap.Int("proxies", len(proxies)),
		zap.Int("trust_target", cfg.TrustTarget),
		zap.String("model", cfg.OpenRouterModel),
		zap.Int("token_min", cfg.TokenMin),
		zap.Int("token_max", cfg.TokenMax))

	registry := domain.NewTokenRegistry(cfg.TokenMin, cfg.TokenMax)

	store, err := state.NewStore(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	if snap, loadErr := store.Load(ctx); loadErr != nil {
		logger.Warn("registry restore failed, starting empty", zap.Error(loadErr))
	} else {
		registry.Restore(snap)
		taken, free := registry.Counts()
		logger.Info("registry restored", zap.Int("taken", taken), zap.Int("free", free))
	}

	statsFile, err := state.NewStatsFile(cfg.StatsFile)
	if err != nil {
		return fmt.Errorf("open stats file: %w", err)
	}

	metrics := obs.NewMetrics()
	promRegistry := prometheus.NewRegistry()
	metrics.MustRegister(promRegistry)

	solver := openrouter.NewClient(openrouter.Config{
		APIKey: cfg.OpenRouterKey,
		Model:  cfg.OpenRouterModel,
	}, logger)

	workers := make([]*application.Worker, 0, len(keys))
	for i, key := range keys {
		proxyURL := ""
		if i < len(proxies) {
			proxyURL = proxies[i]
		}

		gateway, gwErr := plaza.NewClient(plaza.Config{
			BaseURL:   cfg.BaseURL,
			APIKey:    key,
			ProxyURL:  proxyURL,
			UserAgent: cfg.UserAgent,
		})
		if gwErr != nil {
			return fmt.Errorf("build gateway for account %d: %w", i+1, gwErr)
		}

		id := domain.AccountID(fmt.Sprintf("acc_%02d", i+1))
		workers = append(workers, application.NewWorker(id, cfg.workerConfig(openrouter.StyleFor(i)), application.WorkerDeps{
			Gateway:  gateway,
			Solver:   solver,
			Registry: registry,
			Logger:   logger,
			Metrics:  metrics,
		}))
	}

	fleet := application.NewFleet(uuid.NewString(), application.FleetConfig{
		StaggerInterval: cfg.StaggerInterval,
		PersistInterval: cfg.PersistInterval,
	}, workers, application.FleetDeps{
		Registry: registry,
		Store:    store,
		Stats:    statsFile,
		Logger:   logger,
	})

	if !noDashboard {
		shutdown := startDashboard(cfg.ListenAddr, fleet, promRegistry, logger)
		defer shutdown()
	}

	if err := fleet.Run(ctx); err != nil {
		return err
	}

	rendered, err := report.Render(fleet.Snapshot())
	if err != nil {
		return fmt.Errorf("render fleet report: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func startDashboard(addr string, fleet *application.Fleet, promRegistry *prometheus.Registry, logger *zap.Logger) func() {
	handler := dashboard.NewServer(fleet, promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}), logger)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("dashboard listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("dashboard server stopped", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown failed", zap.Error(err))
		}
	}
}
