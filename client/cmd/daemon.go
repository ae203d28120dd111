package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gitify-app/updater/client/internal/config"
	"github.com/gitify-app/updater/client/internal/updatemanager"
	"github.com/gitify-app/updater/client/internal/updatemanager/downloader"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/installer"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
	"github.com/gitify-app/updater/client/server"
	"github.com/gitify-app/updater/client/server/middleware"
	"github.com/gitify-app/updater/shared/metrics"
	"github.com/gitify-app/updater/util"
	"github.com/gitify-app/updater/version"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "runs the update manager and serves its local API",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logPath := logFile
	if logPath == "" {
		logPath = cfg.LogFile()
	}
	if err := util.InitLog(logLevel, logPath); err != nil {
		return fmt.Errorf("init log: %w", err)
	}

	log.Infof("starting gitify-updater %s, manifest %s", version.Version(), cfg.ManifestURL)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupCloseHandler(ctx, cancel)

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Warnf("failed to shut down metrics: %v", err)
		}
	}()

	mgr, bus, err := newManager(cfg, m)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(gctx, mgr, bus, m.Handler(), &middleware.RateLimiterConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}, cfg.AllowedOrigins)
	defer srv.Stop()

	g.Go(func() error {
		return srv.ListenAndServe(cfg.ListenAddress)
	})

	g.Go(func() error {
		mgr.Start(gctx)
		<-gctx.Done()
		mgr.Stop()
		return nil
	})

	g.Go(func() error {
		err := config.Watch(gctx, configPath, cfg, func(updated *config.Config) {
			if changed := cfg.RestartRequired(updated); len(changed) > 0 {
				log.Warnf("config changes to %s take effect after a daemon restart", strings.Join(changed, ", "))
			}
			mgr.SetCheckInterval(updated.CheckInterval.Duration)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			// the daemon keeps running on the config it started with
			log.Warnf("stopped watching config %s: %v", configPath, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("gitify-updater stopped")
	return nil
}

func newManager(cfg *config.Config, m *metrics.Metrics) (*updatemanager.Manager, *event.Bus, error) {
	managerMetrics, err := updatemanager.NewMetrics(m.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("init update metrics: %w", err)
	}

	client := downloader.NewClient(cfg.RequestTimeout.Duration,
		downloader.WithProgressInterval(cfg.ProgressInterval.Duration))
	source := release.NewHTTPSource(cfg.ManifestURL, client, cfg.MaxArtifactSize)
	bus := event.NewBus(0)

	opts := []updatemanager.Option{
		updatemanager.WithMetrics(managerMetrics),
		updatemanager.WithResultHandler(installer.NewResultHandler(cfg.DataDir)),
	}

	verifier, err := cfg.Verifier()
	if err != nil {
		return nil, nil, fmt.Errorf("load artifact keys: %w", err)
	}
	if verifier != nil {
		opts = append(opts, updatemanager.WithVerifier(verifier))
	} else {
		log.Warn("no artifact public keys configured, downloaded updates are not verified")
	}

	return updatemanager.NewManager(cfg.ManagerConfig(), source, bus, opts...), bus, nil
}
