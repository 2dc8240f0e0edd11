package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fileshare/fileshared/internal/config"
	"github.com/fileshare/fileshared/internal/logger"
	"github.com/fileshare/fileshared/pkg/httpapi"
	"github.com/fileshare/fileshared/pkg/metrics"
	"github.com/fileshare/fileshared/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Registers the Prometheus-backed ServerMetrics constructor.
	_ "github.com/fileshare/fileshared/pkg/metrics/prometheus"
)

var (
	servePort        int
	serveDBBackend   string
	serveBlobBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fileshared server",
	Long: `serve starts the wire-protocol listener and the admin HTTP surface
(/healthz, and /metrics when enabled), seeding the primary admin account
on an empty store. It runs until SIGINT or SIGTERM triggers a graceful
shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "wire-protocol listen port (overrides config/server.addr's port)")
	serveCmd.Flags().StringVar(&serveDBBackend, "db-backend", "", "metadata store backend: sqlite|postgres (overrides config)")
	serveCmd.Flags().StringVar(&serveBlobBackend, "blob-backend", "", "blob store backend: fs|badger|s3 (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if servePort != 0 {
		v.Set("server.addr", fmt.Sprintf("0.0.0.0:%d", servePort))
	}
	if serveDBBackend != "" {
		v.Set("database.backend", serveDBBackend)
	}
	if serveBlobBackend != "" {
		v.Set("blob.backend", serveBlobBackend)
	}

	cfg, err := config.Load(v, GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := initLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meta, err := openMetadataStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer meta.Close()

	blobStore, err := openBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer blobStore.Close()

	engine := server.NewEngine(meta, blobStore)
	engine.BlobBackendName = cfg.Blob.Backend
	engine.WithMetrics(metrics.New())

	if err := engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to seed primary admin: %w", err)
	}

	dispatcher := server.NewDispatcher(engine)
	acceptor, err := server.NewAcceptor(cfg.Server.Addr, dispatcher)
	if err != nil {
		return fmt.Errorf("failed to bind listener: %w", err)
	}

	logger.Info("fileshared starting", "addr", acceptor.Addr().String(), "db_backend", cfg.Database.Backend, "blob_backend", cfg.Blob.Backend)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- acceptor.Serve()
	}()

	var adminServer *http.Server
	if cfg.Admin.Addr != "" {
		adminServer = &http.Server{
			Addr:    cfg.Admin.Addr,
			Handler: httpapi.NewRouter(acceptor, time.Now()),
		}
		go func() {
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin HTTP server error", "error", err)
			}
		}()
		logger.Info("admin HTTP surface listening", "addr", cfg.Admin.Addr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining connections")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if adminServer != nil {
			_ = adminServer.Shutdown(shutdownCtx)
		}
		if err := acceptor.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
			return err
		}
		<-serverDone
		logger.Info("fileshared stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("listener error", "error", err)
			return err
		}
	}

	return nil
}

func initLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}
