package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/daemon"
	"github.com/npratt/damageflow/internal/events"
)

// resolveEventLog returns the event log of the running instance, or the
// configured path when none is running.
func resolveEventLog() string {
	if info, err := daemon.FindDaemonInfo(""); err == nil && info.LogPath != "" {
		return info.LogPath
	}

	logPath := viper.GetString(FlagLogFile)
	if logPath == "" {
		logPath = config.Default().Paths.Log
		if cfg, err := config.LoadConfig(viper.GetViper()); err == nil {
			logPath = cfg.Paths.Log
		}
	}
	resolved, err := daemon.ResolvePaths(config.PathsConfig{Log: logPath}, daemon.FindProjectRoot(""))
	if err != nil {
		return logPath
	}
	return resolved.Log
}

// tailLast prints the last n lines of the log file.
func tailLast(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "No events yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	if len(lines) == 0 {
		fmt.Fprintln(w, "No events yet")
		return nil
	}

	start := 0
	if n > 0 && len(lines) > n {
		start = len(lines) - n
	}
	for _, line := range lines[start:] {
		printEventLine(w, line)
	}
	return nil
}

// waitForFile waits for a file to be created and returns the opened file.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open file: %w", err)
			}
		}
	}
}

// tailFollow prints lines appended to the log file until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		fmt.Fprintln(w, "Waiting for log file to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		chunk, err := reader.ReadString('\n')
		partial += chunk
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("read log: %w", err)
		}
		printEventLine(w, strings.TrimSuffix(partial, "\n"))
		partial = ""
	}
}

// printEventLine prints one log line as "[15:04:05] <event>". Lines that are
// not events are printed unchanged.
func printEventLine(w io.Writer, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	event, err := events.ParseEvent([]byte(line))
	if err != nil || event == nil {
		fmt.Fprintln(w, line)
		return
	}

	text := events.Format(event)
	if text == "" {
		text = string(event.Type())
	}
	fmt.Fprintf(w, "[%s] %s\n", event.Timestamp().Local().Format("15:04:05"), text)
}
