package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npratt/damageflow/internal/config"
)

func TestResolvePaths(t *testing.T) {
	tmp := t.TempDir()

	tests := []struct {
		name  string
		paths config.PathsConfig
		want  config.PathsConfig
	}{
		{
			name:  "relative",
			paths: config.Default().Paths,
			want: config.PathsConfig{
				Log:    filepath.Join(tmp, ".damageflow/events.jsonl"),
				Socket: filepath.Join(tmp, ".damageflow/damageflow.sock"),
			},
		},
		{
			name:  "absolute unchanged",
			paths: config.PathsConfig{Log: "/var/log/df.jsonl", Socket: "/run/df.sock"},
			want:  config.PathsConfig{Log: "/var/log/df.jsonl", Socket: "/run/df.sock"},
		},
		{
			name:  "mixed",
			paths: config.PathsConfig{Log: "/var/log/df.jsonl", Socket: "run/df.sock"},
			want:  config.PathsConfig{Log: "/var/log/df.jsonl", Socket: filepath.Join(tmp, "run/df.sock")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePaths(tt.paths, tmp)
			if err != nil {
				t.Fatalf("ResolvePaths() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvePaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	for _, marker := range []string{".git", ".damageflow"} {
		t.Run(marker, func(t *testing.T) {
			tmp := t.TempDir()
			if err := os.Mkdir(filepath.Join(tmp, marker), 0755); err != nil {
				t.Fatalf("create %s: %v", marker, err)
			}
			subDir := filepath.Join(tmp, "deep", "nested", "dir")
			if err := os.MkdirAll(subDir, 0755); err != nil {
				t.Fatalf("create subdir: %v", err)
			}

			if root := FindProjectRoot(subDir); root != tmp {
				t.Errorf("from subdir: expected %q, got %q", tmp, root)
			}
			if root := FindProjectRoot(tmp); root != tmp {
				t.Errorf("from root: expected %q, got %q", tmp, root)
			}
		})
	}
}

func TestFindProjectRoot_NoMarker(t *testing.T) {
	tmp := t.TempDir()

	subDir := filepath.Join(tmp, "sub")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatalf("create subdir: %v", err)
	}

	absSubDir, _ := filepath.Abs(subDir)
	if root := FindProjectRoot(subDir); root != absSubDir {
		t.Errorf("expected %q (start dir), got %q", absSubDir, root)
	}
}

func TestWriteReadDaemonInfo(t *testing.T) {
	tmp := t.TempDir()
	// Parent directory does not exist yet
	infoPath := filepath.Join(tmp, "nested", ".damageflow", "daemon.json")

	info := &DaemonInfo{
		SocketPath: "/path/to/socket",
		LogPath:    "/path/to/log",
		StartTime:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		PID:        4242,
	}

	if err := WriteDaemonInfo(infoPath, info); err != nil {
		t.Fatalf("WriteDaemonInfo() error: %v", err)
	}

	got, err := ReadDaemonInfo(infoPath)
	if err != nil {
		t.Fatalf("ReadDaemonInfo() error: %v", err)
	}
	if got.SocketPath != info.SocketPath || got.LogPath != info.LogPath || got.PID != info.PID {
		t.Errorf("ReadDaemonInfo() = %+v, want %+v", got, info)
	}
	if !got.StartTime.Equal(info.StartTime) {
		t.Errorf("StartTime: expected %v, got %v", info.StartTime, got.StartTime)
	}
}

func TestReadDaemonInfo_NotFound(t *testing.T) {
	if _, err := ReadDaemonInfo("/nonexistent/daemon.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestRemoveDaemonInfo(t *testing.T) {
	infoPath := filepath.Join(t.TempDir(), "daemon.json")
	if err := os.WriteFile(infoPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("create file: %v", err)
	}

	if err := RemoveDaemonInfo(infoPath); err != nil {
		t.Errorf("RemoveDaemonInfo() error: %v", err)
	}
	if _, err := os.Stat(infoPath); !os.IsNotExist(err) {
		t.Error("file should have been removed")
	}

	// Removing again is not an error
	if err := RemoveDaemonInfo(infoPath); err != nil {
		t.Errorf("RemoveDaemonInfo() on missing file: %v", err)
	}
}

func TestFindDaemonInfo(t *testing.T) {
	tmp := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmp, ".git"), 0755); err != nil {
		t.Fatalf("create .git: %v", err)
	}
	subDir := filepath.Join(tmp, "sub", "dir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("create subdir: %v", err)
	}

	if _, err := FindDaemonInfo(subDir); err == nil {
		t.Fatal("expected error before daemon.json exists")
	}

	info := &DaemonInfo{SocketPath: "/path/to/socket", PID: 12345}
	if err := WriteDaemonInfo(DaemonInfoPath(tmp), info); err != nil {
		t.Fatalf("write daemon info: %v", err)
	}

	found, err := FindDaemonInfo(subDir)
	if err != nil {
		t.Fatalf("FindDaemonInfo() error: %v", err)
	}
	if found.SocketPath != info.SocketPath || found.PID != info.PID {
		t.Errorf("FindDaemonInfo() = %+v, want %+v", found, info)
	}
}

func TestDaemonInfoPath(t *testing.T) {
	if got := DaemonInfoPath("/project"); got != "/project/.damageflow/daemon.json" {
		t.Errorf("DaemonInfoPath() = %q", got)
	}
}
