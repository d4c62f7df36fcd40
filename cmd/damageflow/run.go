package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/daemon"
	"github.com/npratt/damageflow/internal/events"
	"github.com/npratt/damageflow/internal/shutdown"
	"github.com/npratt/damageflow/internal/tui"
)

// tuiBufferSize is the event buffer between the controller and the TUI.
const tuiBufferSize = 1000

// shutdownTimeout bounds how long headless mode waits after a signal.
const shutdownTimeout = 5 * time.Second

func newRunCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline animation",
		Long: `Run the pipeline animation.

With a terminal attached the pipeline is drawn as a live diagram. Use
--headless (or pipe stdout) to print one line per transition instead.

Either way the instance listens on a control socket so status, pause,
resume, reset and select work from another terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			headless := viper.GetBool(FlagHeadless)

			// Determine TUI mode: explicit flag > auto-detect from TTY
			tuiEnabled := viper.GetBool(FlagTUI)
			if !cmd.Flags().Changed(FlagTUI) && !headless {
				tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
			}
			if tuiEnabled && headless {
				return fmt.Errorf("--tui and --headless flags are incompatible")
			}

			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}

			cfg, err := config.LoadConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyRunOverrides(cmd, cfg); err != nil {
				return err
			}

			catalog, err := cfg.Catalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			projectRoot := daemon.FindProjectRoot("")
			cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			if daemon.NewClient(cfg.Paths.Socket).IsRunning() {
				return fmt.Errorf("already running (socket: %s)", cfg.Paths.Socket)
			}

			// TUI mode: redirect logger to file so it doesn't corrupt the display
			ctrlLogger := logger
			if tuiEnabled {
				tuiLog := SetupTUILogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
				defer func() { _ = tuiLog.Close() }()
				ctrlLogger = tuiLog.Logger
				slog.SetDefault(ctrlLogger)
			}

			ctrlLogger.Info("damageflow starting",
				"version", version,
				"log_file", cfg.Paths.Log,
				"socket", cfg.Paths.Socket,
				"tui", tuiEnabled,
				"step_interval", cfg.Timing.StepInterval,
			)

			router := events.NewRouter(events.DefaultBufferSize)
			opts := []controller.Option{
				controller.WithRouter(router),
				controller.WithSelection(cfg.InitialBranch()),
			}
			if cfg.UI.StartPaused {
				opts = append(opts, controller.WithStartPaused())
			}
			ctrl := controller.New(catalog, cfg.Timing, ctrlLogger, opts...)
			defer ctrl.Close()

			logSink := events.NewLogSink(cfg.Paths.Log)
			if err := logSink.Start(cmd.Context(), router.Subscribe()); err != nil {
				return fmt.Errorf("start log sink: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			dmn := daemon.New(cfg, ctrl, ctrlLogger, daemon.WithOnStop(cancel))
			daemonDone := make(chan struct{})
			go func() {
				defer close(daemonDone)
				if err := dmn.Start(ctx); err != nil {
					ctrlLogger.Error("daemon server error", "error", err)
				}
			}()

			infoPath := daemon.DaemonInfoPath(projectRoot)
			info := &daemon.DaemonInfo{
				SocketPath: cfg.Paths.Socket,
				LogPath:    cfg.Paths.Log,
				StartTime:  time.Now(),
				PID:        os.Getpid(),
			}
			if err := daemon.WriteDaemonInfo(infoPath, info); err != nil {
				ctrlLogger.Warn("failed to write daemon info", "error", err)
			}

			// The sink drains until the controller closes its channel, so it
			// stops after the controller.
			defer func() {
				cancel()
				<-daemonDone
				ctrl.Close()
				_ = logSink.Stop()
				_ = daemon.RemoveDaemonInfo(infoPath)
			}()

			if tuiEnabled {
				tuiEvents := ctrl.SubscribeBuffered(tuiBufferSize)
				app := tui.New(tuiEvents, ctrl,
					tui.WithOnQuit(cancel),
					tui.WithAllMarkers(cfg.UI.ShowAllMarkers),
				)

				// A remote stop closes the controller, which ends the TUI.
				go func() {
					<-ctx.Done()
					ctrl.Close()
				}()

				ctrl.Start()
				return app.Run()
			}

			transitions := ctrl.Subscribe()
			cycles := viper.GetInt(FlagCycles)
			return shutdown.RunWithGracefulShutdown(
				ctx,
				ctrlLogger,
				shutdownTimeout,
				func(runCtx context.Context) error {
					ctrl.Start()
					return printTransitions(runCtx, cmd.OutOrStdout(), transitions, cycles)
				},
				func(context.Context) error {
					ctrl.Close()
					return nil
				},
			)
		},
	}

	runCmd.Flags().Bool(FlagTUI, false, "Force the terminal diagram")
	runCmd.Flags().Bool(FlagHeadless, false, "Print transitions instead of drawing the diagram")
	runCmd.Flags().Int(FlagCycles, 0, "Stop after this many complete loops in headless mode (0 = forever)")
	runCmd.Flags().Duration(FlagStepInterval, 0, "Time per main, branch and merge step")
	runCmd.Flags().Duration(FlagSettleDelay, 0, "Pause after all branches finish")
	runCmd.Flags().Duration(FlagLoopDelay, 0, "Pause before the pipeline restarts")
	runCmd.Flags().String(FlagBranch, "", "Initially selected branch (existing-damage, new-damage, no-damage, none)")
	runCmd.Flags().Bool(FlagPaused, false, "Start paused")
	runCmd.Flags().Bool(FlagSingleMarker, false, "Draw one marker instead of one per branch")
	bindFlags(runCmd.Flags())

	return runCmd
}

// applyRunOverrides copies explicitly set flags onto cfg and revalidates it.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if changed(FlagCatalog) {
		cfg.CatalogFile = viper.GetString(FlagCatalog)
	}
	if changed(FlagStepInterval) {
		cfg.Timing.StepInterval = viper.GetDuration(FlagStepInterval)
	}
	if changed(FlagSettleDelay) {
		cfg.Timing.SettleDelay = viper.GetDuration(FlagSettleDelay)
	}
	if changed(FlagLoopDelay) {
		cfg.Timing.LoopDelay = viper.GetDuration(FlagLoopDelay)
	}
	if changed(FlagBranch) {
		cfg.UI.InitialBranch = viper.GetString(FlagBranch)
	}
	if changed(FlagPaused) {
		cfg.UI.StartPaused = viper.GetBool(FlagPaused)
	}
	if changed(FlagSingleMarker) {
		cfg.UI.ShowAllMarkers = !viper.GetBool(FlagSingleMarker)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// printTransitions writes one line per event until ctx is done, the channel
// closes, or cycles loops have completed (0 means no limit).
func printTransitions(ctx context.Context, w io.Writer, ch <-chan events.Event, cycles int) error {
	loops := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if line := events.Format(ev); line != "" {
				fmt.Fprintf(w, "%s %s\n", ev.Timestamp().Local().Format("15:04:05.000"), line)
			}
			if sc, ok := ev.(*events.StateChangedEvent); ok && sc.Cause == events.CauseLoop {
				loops++
				if cycles > 0 && loops >= cycles {
					return nil
				}
			}
		}
	}
}

// Compile-time check that the controller satisfies the TUI and daemon views.
var (
	_ tui.Engine        = (*controller.Controller)(nil)
	_ daemon.Controller = (*controller.Controller)(nil)
)
