package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/snar-ar/overlay/internal/config"
	"github.com/snar-ar/overlay/internal/logging"
	intOtel "github.com/snar-ar/overlay/internal/otel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFileHint = config.FileName

// process-wide services, set up before any subcommand runs
var (
	SessionStartTime = time.Now()

	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	OTelProvider *intOtel.Provider
	LogFile      *os.File

	// contextAttrs is read by every log record; the run command fills it in.
	contextAttrs func() []slog.Attr
)

func setup(cmd *cobra.Command) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.WithContext(func() []slog.Attr {
		if contextAttrs == nil {
			return nil
		}
		return contextAttrs()
	})

	cfgErr := config.Load(configDir)
	if cfgErr != nil {
		config.SetDefaults()
	}
	if logLevel != "" {
		viper.Set("logLevel", logLevel)
	}

	// one-shot commands log to the console; the host loop logs to a file
	if cmd.Name() == runCmd.Name() {
		if err := openLogFile(); err != nil {
			return err
		}
	}

	var out io.Writer
	if LogFile != nil {
		out = LogFile
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled && (out != nil || otelCfg.Endpoint != ""),
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      out,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up OTel: %w", err)
	}
	OTelProvider = provider

	SlogManager.Setup(out, config.GetString("logLevel"), provider.LoggerProvider())
	Logger = SlogManager.Logger()

	if cfgErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		Logger.Debug("Loaded config", "dir", configDir)
	}

	if gl := config.GetGraylogConfig(); gl.Enabled {
		if err := SlogManager.AddGraylog(gl.Address); err != nil {
			Logger.Warn("Failed to enable Graylog output", "error", err)
		}
	}
	return nil
}

func openLogFile() error {
	f, path, err := logging.OpenLogFile(config.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		return err
	}
	LogFile = f
	fmt.Fprintf(os.Stderr, "Logging to %s\n", path)
	return nil
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if SlogManager != nil {
		if err := SlogManager.Flush(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "log flush failed:", err)
		}
		SlogManager.Close()
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "otel shutdown failed:", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}
