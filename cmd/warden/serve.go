package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/registry"
	"agentgov/warden/pkg/telemetry/metrics"
	"agentgov/warden/pkg/workflow/runstore"
)

var serveFlags struct {
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine as a long-lived process",
	Long: `Run warden as a long-lived process: the registry is kept hot,
reloaded when documents change on disk, the run retention sweeper runs
on its schedule, and Prometheus metrics are exposed over HTTP.

The process exits cleanly on SIGINT or SIGTERM.

Example:
  warden serve --registry registry/ --metrics-addr :9464`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.metricsAddr, "metrics-addr", ":9464", "metrics listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	ctx := cli.SetupSignalHandler()

	promReg := prometheus.NewRegistry()
	gm := metrics.New(promReg)

	if cfg.Registry.Git != nil {
		src := &registry.GitSource{
			URL:    cfg.Registry.Git.URL,
			Branch: cfg.Registry.Git.Branch,
			Dir:    cfg.Registry.Root,
			Logger: logger,
		}
		if err := src.Sync(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
	}

	reg := registry.New(registry.WithLogger(logger), registry.WithMetrics(gm))
	if _, err := reg.Reload(cfg.Registry.Root); err != nil {
		return cli.NewCommandError("serve", err)
	}

	watcher, err := registry.NewWatcher(reg, cfg.Registry.Root, cfg.Registry.Debounce, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	store, closeStore, err := openRunStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer closeStore()

	sweeper, err := runstore.NewSweeper(store, &runstore.RetentionConfig{
		MaxAge:   cfg.RunStore.RetentionMaxAge,
		Schedule: cfg.RunStore.RetentionSchedule,
	}, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok %d skills (version %s)\n", reg.Len(), reg.Version())
	})

	srv := &http.Server{
		Addr:         serveFlags.metricsAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", serveFlags.metricsAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return cli.NewCommandError("serve", err)
		}
	}

	_ = srv.Close()
	if err := watcher.Close(); err != nil {
		logger.Warn("watcher shutdown", "error", err)
	}
	return nil
}
