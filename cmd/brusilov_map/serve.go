package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/cache"
	"github.com/brusilov1916/brusilov-map/internal/capture"
	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/influx"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/logging"
	"github.com/brusilov1916/brusilov-map/internal/monitor"
	intOtel "github.com/brusilov1916/brusilov-map/internal/otel"
	"github.com/brusilov1916/brusilov-map/internal/overlay"
	"github.com/brusilov1916/brusilov-map/internal/server"
	"github.com/brusilov1916/brusilov-map/internal/session"
	"github.com/brusilov1916/brusilov-map/internal/storage"
	"github.com/brusilov1916/brusilov-map/internal/tiles"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the map HTTP and WebSocket server",
	RunE:  runServe,
}

var listenAddr string

// set once the dataset and sessions exist; read by every log record
var (
	datasetVersion atomic.Pointer[string]
	sessionCount   atomic.Pointer[func() int]
)

func logContext() []slog.Attr {
	var attrs []slog.Attr
	if v := datasetVersion.Load(); v != nil {
		attrs = append(attrs, slog.String("dataset", *v))
	}
	if fn := sessionCount.Load(); fn != nil {
		attrs = append(attrs, slog.Int("sessions", (*fn)()))
	}
	return attrs
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from config)")
}

// setupLogging adds the log file, Graylog and OpenTelemetry outputs.
// The returned function flushes and closes them.
func setupLogging() (*intOtel.Provider, func(), error) {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, err
	}
	logFilePath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{logFile}

	var gelfWriter io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGELFWriter(gl.Address)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			gelfWriter = w
			closers = append(closers, w)
		}
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		provider, _ = intOtel.New(intOtel.Config{})
	} else if otelCfg.Enabled {
		Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
	}

	SlogManager.Setup(logging.Options{
		Level:       config.GetString("logLevel"),
		RemoteLevel: config.GetString("logRemoteLevel"),
		Console:     os.Stderr,
		File:        logFile,
		GELF:        gelfWriter,
		Provider:    provider.LoggerProvider(),
		Context:     logContext,
	})
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logFilePath)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			Logger.Warn("OTel shutdown failed", "error", err)
		}
		for _, c := range closers {
			_ = c.Close()
		}
	}
	return provider, cleanup, nil
}

// initUsage connects the usage recorder. Without InfluxDB, usage is discarded.
func initUsage(ctx context.Context) (server.UsageRecorder, func()) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil, func() {}
	}
	zl := zerolog.New(os.Stderr).With().Timestamp().Str("component", "influx").Logger()
	backupPath := filepath.Join(config.GetString("logsDir"), "usage_backup.lp.gz")
	mgr := influx.NewManager(cfg, zl, backupPath)
	if err := mgr.Connect(ctx); err != nil {
		Logger.Error("Failed to set up usage metrics", "error", err)
		return nil, func() {}
	}
	return mgr, func() {
		if err := mgr.Close(); err != nil {
			Logger.Warn("Failed to close usage metrics", "error", err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, cleanupLogging, err := setupLogging()
	if err != nil {
		return err
	}
	defer cleanupLogging()

	ds, err := loadDataset()
	if err != nil {
		return err
	}
	datasetVersion.Store(&ds.Version)
	composer := layers.NewComposer(ds, capture.Default())

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, Logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage", "error", err)
		}
	}()
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	usage, closeUsage := initUsage(ctx)
	defer closeUsage()

	tilesCfg := config.GetTilesConfig()
	if tilesCfg.CheckOnStart {
		client := tiles.NewClient(tiles.Template{URL: tilesCfg.URLTemplate, Subdomains: tilesCfg.Subdomains})
		if err := client.Healthcheck(); err != nil {
			Logger.Warn("Tile server check failed", "error", err)
		} else {
			Logger.Info("Tile server reachable")
		}
	}

	mapCfg := config.GetMapConfig()
	sessionCfg := config.GetSessionConfig()
	sessions := session.NewManager(ds, backend, session.Options{
		CloseDelay:  mapCfg.OverlayCloseDelay,
		TourSteps:   overlay.DefaultTourSteps,
		IdleTimeout: sessionCfg.IdleTimeout,
		MaxSessions: sessionCfg.Max,
		Logger:      Logger,
	})
	countSessions := sessions.Len
	sessionCount.Store(&countSessions)
	layerCache := cache.NewLayerCache(0)

	listen := listenAddr
	if listen == "" {
		listen = config.GetString("listen")
	}
	srv, err := server.New(server.Dependencies{
		Composer: composer,
		Sessions: sessions,
		Cache:    layerCache,
		Usage:    usage,
		Meter:    provider.Meter("brusilov-map/server"),
		Logger:   Logger,
		Config: server.Config{
			Listen:   listen,
			Tiles:    tilesCfg,
			Map:      mapCfg,
			Contacts: config.GetContactsConfig(),
		},
	})
	if err != nil {
		return err
	}

	status := monitor.NewService(monitor.Dependencies{
		Sessions:  sessions.Len,
		Expire:    sessions.Expire,
		Cache:     layerCache,
		Dataset:   ds.Version,
		Storage:   storageCfg.Type,
		StatusDir: config.GetString("logsDir"),
		Logger:    Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return status.Run(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	Logger.Info("Shutdown complete")
	return err
}
