package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/snar-ar/overlay/internal/config"
	"github.com/snar-ar/overlay/internal/dispatcher"
	"github.com/snar-ar/overlay/internal/frame"
	"github.com/snar-ar/overlay/internal/handlers"
	"github.com/snar-ar/overlay/internal/influx"
	"github.com/snar-ar/overlay/internal/logging"
	"github.com/snar-ar/overlay/internal/monitor"
	"github.com/snar-ar/overlay/internal/style"
	"github.com/snar-ar/overlay/internal/tracking/sim"
	"github.com/spf13/cobra"
)

var (
	runNoStdin bool
	runFrames  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop",
	Long: `Runs the overlay frame loop against a simulated tracking session.

Host commands are read line by line from stdin:
  frame | resize W H | pause | resume | heading DEG | move LAT LON [ALT]
  walk METRES | tracking CAMERA [EARTH] | reload | status

Interrupting the process retires every annotation before exiting.`,
	RunE: runLoop,
}

func init() {
	runCmd.Flags().BoolVar(&runNoStdin, "no-stdin", false, "Do not read host commands from stdin")
	runCmd.Flags().IntVar(&runFrames, "frames", 0, "Stop after this many frames (0 runs until interrupted)")
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frameCfg := config.GetFrameConfig()
	tracker := sim.New(config.GetSimConfig())

	mapper, err := style.NewMapper(config.GetStyleConfig())
	if err != nil {
		return fmt.Errorf("invalid style config: %w", err)
	}

	poiCfg := config.GetPOIConfig()
	src, closeSource, err := createSource(poiCfg)
	if err != nil {
		return err
	}
	defer closeSource()

	sink, closeSink, err := createSink(config.GetSinkConfig(), tracker.Viewport())
	if err != nil {
		return err
	}
	defer closeSink()

	monitorService := monitor.NewService(monitor.Dependencies{
		Dir:      config.GetString("logsDir"),
		Interval: frameCfg.StatusInterval,
		Logger:   Logger.With("component", "monitor"),
	})

	opts := []frame.Option{
		frame.WithLogger(Logger.With("component", "frame")),
		frame.WithObserver(monitorService.Observe),
	}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		backup := filepath.Join(config.GetString("logsDir"),
			fmt.Sprintf("%s.%s.lp.gz", AppName, SessionStartTime.Format("20060102_150405")))
		telemetry := influx.NewManager(logging.NewZerolog(io.Discard, "info"), influxCfg, backup)
		if LogFile != nil {
			telemetry.Logger = logging.NewZerolog(LogFile, config.GetString("logLevel"))
		}
		if err := telemetry.Connect(ctx); err != nil {
			Logger.Warn("Frame telemetry disabled", "error", err)
		} else {
			opts = append(opts, frame.WithObserver(telemetry.Observer()))
			defer telemetry.Close()
		}
	}

	orch, err := frame.New(tracker, tracker, tracker, sink, mapper, opts...)
	if err != nil {
		return err
	}

	// records are logged from inside frames, so these must not take the
	// orchestrator lock
	var lastFrame atomic.Uint64
	var live atomic.Int64
	contextAttrs = func() []slog.Attr {
		return []slog.Attr{
			slog.Uint64("frame", lastFrame.Load()),
			slog.Int64("live", live.Load()),
		}
	}

	d, err := dispatcher.New(Logger.With("component", "dispatcher"))
	if err != nil {
		return err
	}
	svc := handlers.NewService(ctx, handlers.Dependencies{
		Orchestrator: orch,
		Camera:       tracker,
		Loader:       loader(src, poiCfg.Index),
		Logger:       Logger,
	})
	svc.Register(d)

	if _, err := d.Dispatch(dispatcher.Event{Command: handlers.CmdReload, Timestamp: time.Now()}); err != nil {
		Logger.Warn("Initial point load not queued", "error", err)
	}

	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}
	defer monitorService.Stop()

	commands := make(chan string)
	if !runNoStdin {
		go readCommands(os.Stdin, commands)
	}

	Logger.Info("Frame loop started", "interval", frameCfg.Interval, "version", CurrentVersion)
	ticker := time.NewTicker(frameCfg.Interval)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			n := orch.Stop()
			d.Close()
			Logger.Info("Frame loop stopped", "retired", n, "frames", frames)
			return nil

		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			e := dispatcher.ParseLine(line)
			if e.Command == "" {
				continue
			}
			result, err := d.Dispatch(e)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)

		case <-ticker.C:
			r, err := orch.ProcessFrame(ctx)
			if err != nil {
				continue
			}
			if r.Skipped == frame.SkipNone {
				lastFrame.Store(r.Frame)
				live.Store(int64(r.Result.Live))
			}
			frames++
			if runFrames > 0 && frames >= runFrames {
				stop()
			}
		}
	}
}

func readCommands(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}
