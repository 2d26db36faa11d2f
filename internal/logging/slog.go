package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Options configures SlogManager.Setup.
type Options struct {
	Level string
	// RemoteLevel filters GELF and OTel output. Empty means Level.
	RemoteLevel string
	// File receives a copy of every record when set.
	File io.Writer
	// Console defaults to os.Stdout.
	Console io.Writer
	// GELF ships records to Graylog when set.
	GELF io.Writer
	// Provider enables the OpenTelemetry bridge when set.
	Provider *sdklog.LoggerProvider
	// Context injects dynamic attributes into every record.
	Context ContextProvider
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the handler chain and replaces the manager's logger.
func (m *SlogManager) Setup(opts Options) {
	lvl := ParseLevel(opts.Level)
	m.logProvider = opts.Provider

	// RFC3339 UTC timestamps on every text output
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	remote := lvl
	if opts.RemoteLevel != "" {
		remote = ParseLevel(opts.RemoteLevel)
	}

	sinks := []sink{{handler: slog.NewTextHandler(console, handlerOpts)}}
	if opts.File != nil {
		sinks = append(sinks, sink{handler: slog.NewTextHandler(opts.File, handlerOpts)})
	}

	// GELF payloads are JSON so Graylog can extract fields
	if opts.GELF != nil {
		sinks = append(sinks, sink{handler: slog.NewJSONHandler(opts.GELF, handlerOpts), level: remote})
	}
	if opts.Provider != nil {
		bridge := otelslog.NewHandler("brusilov-map", otelslog.WithLoggerProvider(opts.Provider))
		sinks = append(sinks, sink{handler: bridge, level: remote})
	}

	m.logger = slog.New(withLiveAttrs(newFanout(sinks...), opts.Context))
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
