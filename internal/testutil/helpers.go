package testutil

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/events"
)

// WriteFile writes content to a file in the given directory.
// It creates parent directories as needed and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
// It fails the test if the file cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// SetupProjectDir creates a temporary project root containing the project
// config directory. It is removed when the test ends.
func SetupProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.ProjectConfigDir), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// ReadEventLog parses a JSONL event log. Blank lines and unknown event
// types are skipped; malformed lines fail the test.
func ReadEventLog(t *testing.T, path string) []events.Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = file.Close() }()

	var out []events.Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ev, err := events.ParseEvent([]byte(line))
		if err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		if ev != nil {
			out = append(out, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

// DrainEvents reads from ch until it closes or nothing arrives for idle.
func DrainEvents(ch <-chan events.Event, idle time.Duration) []events.Event {
	var out []events.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(idle):
			return out
		}
	}
}

// StateChanges filters evs down to state change events.
func StateChanges(evs []events.Event) []*events.StateChangedEvent {
	var out []*events.StateChangedEvent
	for _, ev := range evs {
		if sc, ok := ev.(*events.StateChangedEvent); ok {
			out = append(out, sc)
		}
	}
	return out
}
