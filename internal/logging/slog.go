package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ScopeName is the instrumentation scope of records sent to the OTel bridge.
const ScopeName = "snar-overlay"

// swapped by tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel and Graylog output.
type SlogManager struct {
	logger  *slog.Logger
	level   slog.Level
	opts    *slog.HandlerOptions
	base    []slog.Handler
	context ContextProvider

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
	graylog     *gelf.Writer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
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

// WithContext makes every record carry the attributes fn returns at the
// time the record is handled. Call before Setup.
func (m *SlogManager) WithContext(fn ContextProvider) {
	m.context = fn
}

// Setup initializes the logging system with file and optional OTel output.
// Console output is used only when file is nil. If provider is nil, OTel
// logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	m.level = parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
	m.opts = &slog.HandlerOptions{
		Level: m.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, m.opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, m.opts))
	}

	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ScopeName, otelslog.WithLoggerProvider(provider)))
	}

	m.base = handlers
	m.graylog = nil
	m.build()
	m.logger.Info("Logging initialized", "level", level)
}

// AddGraylog ships every record as GELF over UDP to addr, in addition to
// the handlers set up by Setup.
func (m *SlogManager) AddGraylog(addr string) error {
	if m.opts == nil {
		return fmt.Errorf("logging not set up")
	}
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return fmt.Errorf("failed to create graylog writer: %w", err)
	}
	m.graylog = w
	m.build()
	m.logger.Info("Graylog output enabled", "address", addr)
	return nil
}

func (m *SlogManager) build() {
	handlers := append([]slog.Handler(nil), m.base...)
	if m.graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(m.graylog, m.opts))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if m.context != nil {
		h = NewContextHandler(h, m.context)
	}
	m.logger = slog.New(h)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Component returns a logger tagged with the component name.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close releases the Graylog connection, if any.
func (m *SlogManager) Close() error {
	if m.graylog == nil {
		return nil
	}
	err := m.graylog.Close()
	m.graylog = nil
	m.build()
	return err
}
