package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/foxseedlab/gunkan/external/config"
	mediaimpl "github.com/foxseedlab/gunkan/external/media"
	repositoryimpl "github.com/foxseedlab/gunkan/external/repository"
	webhookimpl "github.com/foxseedlab/gunkan/external/webhook"
	"github.com/foxseedlab/gunkan/external/whatsapp"
	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/bot"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/command"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/foxseedlab/gunkan/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "storage_driver", cfg.StorageDriver, "media_provider", cfg.MediaProvider)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching whatsapp bot")
	if err := runBot(cfg, injector); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue[clock.Clock](injector, clock.Real())
	repositoryimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	mediaimpl.RegisterDI(injector)
	whatsapp.RegisterDI(injector)
	activity.RegisterDI(injector)
	session.RegisterDI(injector)
	queue.RegisterDI(injector)
	command.RegisterDI(injector)
	bot.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) error {
	repo := do.MustInvoke[repository.Repository](injector)
	transport := do.MustInvoke[messaging.Transport](injector)
	manager := do.MustInvoke[*session.Manager](injector)
	service := do.MustInvoke[*bot.Service](injector)
	router := do.MustInvoke[*bot.Router](injector)
	recorder := do.MustInvoke[*activity.Recorder](injector)
	defer recorder.Wait()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := command.Seed(startCtx, repo); err != nil {
		return err
	}
	slog.Info("startup: command catalog seeded")

	router.Start(ctx, transport)
	defer func() {
		if err := transport.Close(); err != nil {
			slog.Error("transport close failed", "error", err)
		}
		router.Close()
	}()

	if err := manager.Resume(startCtx); err != nil {
		return err
	}
	if !transport.HasCredentials() && cfg.PairingPhone != "" {
		code, err := service.StartPairing(startCtx, cfg.PairingPhone)
		if err != nil {
			slog.Error("failed to request pairing code", "error", err)
		} else {
			slog.Info("pairing code issued; enter it on the phone under Linked devices", "pairing_code", code)
		}
	}
	slog.Info("startup: session resumed", "status", string(service.Status().Status))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		return nil
	})

	return g.Wait()
}
