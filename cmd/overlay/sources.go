package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/snar-ar/overlay/internal/config"
	"github.com/snar-ar/overlay/internal/database"
	"github.com/snar-ar/overlay/internal/logging"
	"github.com/snar-ar/overlay/internal/poi"
	"github.com/snar-ar/overlay/internal/reconcile"
	"github.com/snar-ar/overlay/internal/sink/logsink"
	"github.com/snar-ar/overlay/internal/sink/memory"
	wssink "github.com/snar-ar/overlay/internal/sink/websocket"
	"github.com/snar-ar/overlay/pkg/core"
)

// noop is returned as the closer of resources that hold nothing open.
func noop() error { return nil }

// createSource builds the configured point of interest source. The returned
// closer releases any database connection.
func createSource(cfg config.POIConfig) (poi.Source, func() error, error) {
	switch cfg.Source {
	case "json":
		Logger.Info("JSON point source", "path", cfg.Path)
		return poi.JSONSource{Path: cfg.Path}, noop, nil

	case "geojson":
		Logger.Info("GeoJSON point source", "path", cfg.Path)
		return poi.GeoJSONSource{Path: cfg.Path}, noop, nil

	case "sqlite", "postgres":
		dbCfg := config.GetDBConfig()
		dbCfg.Driver = cfg.Source
		store, closeDB, err := openStore(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		Logger.Info("Database point source", "driver", dbCfg.Driver)
		return store, closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown point source %q", cfg.Source)
	}
}

// openStore connects to the database and makes sure the schema exists.
func openStore(cfg database.Config) (*poi.Store, func() error, error) {
	dbm := database.NewManager(logging.NewZerolog(os.Stderr, config.GetString("logLevel")))
	if err := dbm.Connect(cfg); err != nil {
		return nil, nil, err
	}
	store := poi.NewStore(dbm.DB)
	if err := store.Migrate(); err != nil {
		dbm.Close()
		return nil, nil, fmt.Errorf("failed to migrate point store: %w", err)
	}
	return store, dbm.Close, nil
}

// loader returns a function that reads src into a point set.
func loader(src poi.Source, index bool) func(ctx context.Context) (*poi.Set, error) {
	var opts []poi.SetOption
	if index {
		opts = append(opts, poi.WithIndex())
	}
	return func(ctx context.Context) (*poi.Set, error) {
		return poi.Load(ctx, src, opts...)
	}
}

// createSink builds the configured annotation sink. Non-logging sinks are
// wrapped so every operation is also logged at debug level.
func createSink(cfg config.SinkConfig, viewport core.Viewport) (reconcile.Sink, func() error, error) {
	switch cfg.Type {
	case "log":
		Logger.Info("Log annotation sink initialized")
		return logsink.New(Logger), noop, nil

	case "memory":
		Logger.Info("Memory annotation sink initialized")
		return logsink.Wrap(memory.New(), debugLogger{}), noop, nil

	case "websocket":
		wsURL := httpToWS(cfg.URL)
		ws := wssink.New(wssink.Config{URL: wsURL, Secret: cfg.Secret}, Logger)
		if err := ws.Start(viewport); err != nil {
			return nil, nil, fmt.Errorf("failed to start websocket sink: %w", err)
		}
		Logger.Info("WebSocket annotation sink initialized", "url", wsURL, "session", ws.Session())
		return logsink.Wrap(ws, debugLogger{}), ws.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}

// debugLogger demotes the wrapped sink's logging to debug.
type debugLogger struct{}

func (debugLogger) Debug(msg string, keysAndValues ...any) { Logger.Debug(msg, keysAndValues...) }
func (debugLogger) Info(msg string, keysAndValues ...any)  { Logger.Debug(msg, keysAndValues...) }

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
