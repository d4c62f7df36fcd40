package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/daemon"
	"github.com/npratt/damageflow/internal/stage"
)

var version = "dev"

// getDaemonClient finds the running daemon through daemon.json, falling back
// to the configured socket path.
func getDaemonClient() (*daemon.Client, error) {
	if info, err := daemon.FindDaemonInfo(""); err == nil {
		return daemon.NewClient(info.SocketPath), nil
	}

	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if sock := viper.GetString(FlagSocketPath); sock != "" {
		cfg.Paths.Socket = sock
	}
	paths, err := daemon.ResolvePaths(cfg.Paths, daemon.FindProjectRoot(""))
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	client := daemon.NewClient(paths.Socket)
	if !client.IsRunning() {
		return nil, fmt.Errorf("daemon not running (socket: %s)", paths.Socket)
	}
	return client, nil
}

// printStatus writes the human-readable form of a status response.
func printStatus(w io.Writer, status *daemon.StatusResponse) {
	state := "running"
	if !status.Running {
		state = "paused"
	}
	fmt.Fprintf(w, "Status: %s\n", state)
	fmt.Fprintf(w, "Phase: %s", status.Phase)
	if status.Step >= 0 {
		fmt.Fprintf(w, " (step %d)", status.Step)
	}
	fmt.Fprintln(w)

	if len(status.Progress) > 0 {
		ids := make([]string, 0, len(status.Progress))
		for id := range status.Progress {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		fmt.Fprintf(w, "Branch progress:\n")
		for _, id := range ids {
			fmt.Fprintf(w, "  %s: %d\n", id, status.Progress[stage.BranchID(id)])
		}
	}

	fmt.Fprintf(w, "Selected: %s\n", status.Selected)
	if status.Annotation.Title != "" {
		fmt.Fprintf(w, "Annotation: %s\n", status.Annotation.Title)
		if status.Annotation.Text != "" {
			fmt.Fprintf(w, "  %s\n", status.Annotation.Text)
		}
	}
	fmt.Fprintf(w, "Marker: (%.2f, %.2f)\n", status.Marker.X, status.Marker.Y)
	fmt.Fprintf(w, "Uptime: %s\n", status.Uptime)
	fmt.Fprintf(w, "Started: %s\n", status.StartTime)
}

// bindFlags binds every flag in fs to the global viper instance.
func bindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "damageflow",
		Short: "Animated vehicle damage detection pipeline",
		Long: `damageflow animates the vehicle damage detection pipeline: images are
uploaded, run through detection, deduplication and before/after comparison,
fan out into the existing-damage, new-damage and no-damage outcomes, and merge
back into a case decision and report.

The pipeline loops until stopped. A running instance can be paused, reset and
steered from another terminal through its control socket.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .damageflow/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log file path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for daemon control")
	rootCmd.PersistentFlags().String(FlagCatalog, "", "YAML stage catalog (default: built-in)")
	bindFlags(rootCmd.PersistentFlags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "damageflow %s\n", version)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}

			status, err := client.Status()
			if err != nil {
				return err
			}

			if viper.GetBool(FlagJSON) {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	_ = viper.BindPFlag(FlagJSON, statusCmd.Flags().Lookup(FlagJSON))

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Freeze the pipeline at its current stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			if err := client.Pause(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Paused")
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			if err := client.Resume(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resumed")
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Pause a running pipeline or resume a paused one",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			state, err := client.Toggle()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now %s\n", state)
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restart the pipeline from the first stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			if err := client.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reset to first stage")
			return nil
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select <branch>",
		Short: "Highlight an outcome branch",
		Long: `Highlight an outcome branch. Accepts existing-damage, new-damage,
no-damage, the shortcuts 1-3, or none to clear the selection.

Selection only changes what is highlighted; every branch keeps advancing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate locally so typos fail before touching the socket.
			if _, err := stage.ParseBranchID(args[0]); err != nil {
				return err
			}
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			selected, err := client.Select(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected: %s\n", selected)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			if err := client.Stop(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
			return nil
		},
	}

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the stage catalog as YAML",
		Long: `Print the stage catalog as YAML. The output can be edited and passed
back with --catalog or catalog_file in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed(FlagCatalog) {
				cfg.CatalogFile = viper.GetString(FlagCatalog)
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			data, err := stage.MarshalCatalog(catalog)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent pipeline events",
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := resolveEventLog()
			if viper.GetBool(FlagFollow) {
				return tailFollow(cmd.Context(), cmd.OutOrStdout(), logPath)
			}
			return tailLast(cmd.OutOrStdout(), logPath, viper.GetInt(FlagCount))
		},
	}
	eventsCmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	bindFlags(eventsCmd.Flags())

	rootCmd.AddCommand(
		versionCmd,
		newRunCmd(logger, logLevel),
		statusCmd,
		pauseCmd,
		resumeCmd,
		toggleCmd,
		resetCmd,
		selectCmd,
		stopCmd,
		catalogCmd,
		eventsCmd,
	)
	return rootCmd
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := newJSONLogger(os.Stderr, logLevel)

	viper.SetEnvPrefix("DAMAGEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := newRootCmd(logger, logLevel).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
