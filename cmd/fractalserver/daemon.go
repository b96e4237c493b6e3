package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/oriys/newtonfractal/internal/config"
	"github.com/oriys/newtonfractal/internal/handlers"
	"github.com/oriys/newtonfractal/internal/httpapi"
	"github.com/oriys/newtonfractal/internal/logging"
	"github.com/oriys/newtonfractal/internal/metrics"
	"github.com/oriys/newtonfractal/internal/newton"
	"github.com/oriys/newtonfractal/internal/save"
	"github.com/oriys/newtonfractal/internal/workerpool"
	"github.com/spf13/cobra"
)

// diagnosticsRetention and diagnosticsMaxEntries bound the in-process
// cache of recent draw.Stats (see internal/logging.DiagnosticsStore).
const (
	diagnosticsRetention  = 10 * time.Minute
	diagnosticsMaxEntries = 512

	// queueDepthSamplePeriod bounds how often the render pool's queue
	// depth gauge is refreshed.
	queueDepthSamplePeriod = 2 * time.Second
)

func serveCmd() *cobra.Command {
	var (
		httpAddr string
		workers  int
		saveDir  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rendering server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				var err error
				cfg, err = config.LoadFromFile(configFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			config.LoadFromEnv(cfg)

			if cmd.Flags().Changed("http") {
				cfg.Daemon.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Pool.Workers = workers
			}
			if cmd.Flags().Changed("save-dir") {
				cfg.Save.Directory = saveDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Daemon.LogLevel = logLevel
				cfg.Logging.Level = logLevel
			}

			logging.InitStructured(cfg.Logging.Format, cfg.Logging.Level)
			logging.InitDiagnosticsStore(diagnosticsRetention, diagnosticsMaxEntries)

			if cfg.Metrics.Enabled {
				metrics.InitPrometheus(cfg.Metrics.Namespace, cfg.Metrics.HistogramBuckets)
			}

			if err := os.MkdirAll(cfg.Save.Directory, 0o755); err != nil {
				return fmt.Errorf("create save directory: %w", err)
			}

			logging.Op().Info("detected CPU capabilities", "cpu", newton.DescribeCPU())

			pool := workerpool.New(cfg.Pool.Workers)
			store := save.NewStore(cfg.Save.Directory)
			group := handlers.NewGroup(pool, store)
			api := httpapi.NewAPI(group, httpapi.Defaults{
				Strategy:   cfg.Defaults.Strategy,
				Handler:    cfg.Defaults.Handler,
				PNGEncoder: cfg.Defaults.PNGEncoder,
				Precision:  cfg.Defaults.Precision,
			})

			mux := http.NewServeMux()
			api.RegisterRoutes(mux)

			server := &http.Server{Addr: cfg.Daemon.HTTPAddr, Handler: mux}

			logging.Op().Info("fractalserver starting",
				"http_addr", cfg.Daemon.HTTPAddr,
				"workers", cfg.Pool.Workers,
				"save_dir", cfg.Save.Directory,
			)

			queueDepthTicker := time.NewTicker(queueDepthSamplePeriod)
			defer queueDepthTicker.Stop()
			go func() {
				for range queueDepthTicker.C {
					metrics.SetQueueDepth("render", pool.QueueDepth())
				}
			}()

			serverErrCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serverErrCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErrCh:
				return fmt.Errorf("http server: %w", err)
			case <-sigCh:
				logging.Op().Info("shutdown signal received")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("graceful shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address (e.g. :8080)")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU()-1, "worker pool size")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "directory saved renders are persisted under")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}
