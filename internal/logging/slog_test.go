package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "info", Console: &console, File: &file})
	m.Logger().Info("layers composed", "phase", "kovel_strike")

	assert.Contains(t, console.String(), "layers composed")
	assert.Contains(t, file.String(), "phase=kovel_strike")
	assert.Contains(t, file.String(), "Logging initialized")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "info", Console: &buf})

	m.Logger().Debug("debug msg")
	m.Logger().Info("info msg")

	assert.NotContains(t, buf.String(), "debug msg")
	assert.Contains(t, buf.String(), "info msg")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "DEBUG", Console: &buf})
	m.Logger().Debug("debug msg")

	assert.Contains(t, buf.String(), "debug msg")
}

func TestSetup_GELFGetsJSON(t *testing.T) {
	var console, gelfBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "info", Console: &console, GELF: &gelfBuf})
	m.Logger().Warn("tile server unreachable", "status", 503)

	lines := strings.Split(strings.TrimSpace(gelfBuf.String()), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "{"), "GELF output should be JSON: %s", last)
	assert.Contains(t, last, `"status":503`)
}

func TestSetup_ContextProvider(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{
		Level:   "info",
		Console: &buf,
		Context: func() []slog.Attr { return []slog.Attr{slog.String("dataset", "abc123")} },
	})
	m.Logger().Info("hello")

	assert.Contains(t, buf.String(), "dataset=abc123")
}

func TestSetup_UTCTimestamps(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "info", Console: &buf})
	m.Logger().Info("ts")

	for _, field := range strings.Fields(buf.String()) {
		if ts, ok := strings.CutPrefix(field, "time="); ok {
			_, err := time.Parse(time.RFC3339, ts)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(ts, "Z"))
			return
		}
	}
	t.Fatal("no time field found")
}

func TestSetup_WithOTelProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := NewSlogManager()
	m.Setup(Options{Level: "info", Console: &buf, Provider: provider})
	m.Logger().Info("bridged")

	assert.Contains(t, buf.String(), "bridged")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestLogger_BeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestFanout_ContinuesAfterError(t *testing.T) {
	var buf bytes.Buffer
	h := newFanout(sink{handler: failingHandler{}}, sink{}, sink{handler: slog.NewTextHandler(&buf, nil)})
	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still here", 0))

	assert.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "still here")
}

func TestFanout_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := newFanout(sink{handler: slog.NewTextHandler(&buf, nil)}).WithGroup("session")
	slog.New(h).Info("opened", "id", "s1")

	assert.Contains(t, buf.String(), "session.id=s1")
}

func TestFanout_SinkLevels(t *testing.T) {
	var console, remote bytes.Buffer
	debug := &slog.HandlerOptions{Level: slog.LevelDebug}
	h := newFanout(
		sink{handler: slog.NewTextHandler(&console, debug)},
		sink{handler: slog.NewJSONHandler(&remote, debug), level: slog.LevelWarn},
	)
	logger := slog.New(h)
	logger.Info("phase selected")
	logger.Warn("send buffer full")

	assert.Contains(t, console.String(), "phase selected")
	assert.Contains(t, console.String(), "send buffer full")
	assert.NotContains(t, remote.String(), "phase selected")
	assert.Contains(t, remote.String(), "send buffer full")
}

func TestSetup_RemoteLevel(t *testing.T) {
	var console, gelf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{Level: "debug", RemoteLevel: "error", Console: &console, GELF: &gelf})

	m.Logger().Warn("tile server slow")
	m.Logger().Error("storage down")

	assert.Contains(t, console.String(), "tile server slow")
	assert.NotContains(t, gelf.String(), "tile server slow")
	assert.Contains(t, gelf.String(), "storage down")
}

func TestLiveAttrs_EvaluatedPerRecord(t *testing.T) {
	var buf bytes.Buffer
	n := 0
	h := withLiveAttrs(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		n++
		return []slog.Attr{slog.Int("sessions", n)}
	})
	logger := slog.New(h).With("component", "server")
	logger.Info("first")
	logger.Info("second")
	logger.Debug("filtered")

	assert.Contains(t, buf.String(), "component=server sessions=1")
	assert.Contains(t, buf.String(), "sessions=2")
	assert.Equal(t, 2, n)
}
