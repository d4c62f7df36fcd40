package daemon

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npratt/damageflow/internal/config"
)

// waitForSocket waits for the socket to be ready to accept connections.
func waitForSocket(t *testing.T, socketPath string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket did not become ready within %v", timeout)
}

// shortSocketPath creates a short socket path to avoid Unix socket length limits.
// macOS has a 104 byte limit, Linux has 108 bytes.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "sock")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

// startDaemon runs d until the test ends and waits for its socket.
func startDaemon(t *testing.T, d *Daemon) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	waitForSocket(t, d.SocketPath(), 2*time.Second)
	return errCh
}

// rawCall sends req on a fresh connection and decodes one response.
func rawCall(t *testing.T, sockPath string, req any) Response {
	t.Helper()
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial socket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestDaemon_StartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = filepath.Join(t.TempDir(), "nested", "test.sock")

	d := New(cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	waitForSocket(t, cfg.Paths.Socket, 2*time.Second)
	if !d.Running() {
		t.Error("daemon should be running after Start")
	}
	if d.StartTime().IsZero() {
		t.Error("StartTime should be set after Start")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after context cancel")
	}

	if d.Running() {
		t.Error("daemon should not be running after stop")
	}
	if _, err := os.Stat(cfg.Paths.Socket); !os.IsNotExist(err) {
		t.Error("socket file should be removed after stop")
	}
}

func TestDaemon_StopEndsStart(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)
	d := New(cfg, nil, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(context.Background())
	}()
	waitForSocket(t, cfg.Paths.Socket, 2*time.Second)

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestDaemon_StartAlreadyRunning(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)

	d := New(cfg, nil, nil)
	startDaemon(t, d)

	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start on the same daemon should fail")
	}

	other := New(cfg, nil, nil)
	if err := other.Start(context.Background()); err == nil {
		t.Error("Start should fail while another daemon owns the socket")
	}
}

func TestDaemon_SocketPermissions(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)
	startDaemon(t, New(cfg, nil, nil))

	info, err := os.Stat(cfg.Paths.Socket)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if perm := info.Mode().Perm(); perm != socketPermissions {
		t.Errorf("expected socket permissions %o, got %o", socketPermissions, perm)
	}
}

func TestDaemon_CleanupStaleSocket(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)

	// A leftover file nobody listens on
	if err := os.WriteFile(cfg.Paths.Socket, []byte("stale"), 0600); err != nil {
		t.Fatalf("create stale socket: %v", err)
	}

	startDaemon(t, New(cfg, nil, nil))
}

func TestDaemon_HandleConnection_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)
	startDaemon(t, New(cfg, nil, nil))

	tests := []struct {
		name   string
		method string
	}{
		{"unknown method", "unknown_method"},
		{"status without controller", "status"},
		{"pause without controller", "pause"},
		{"resume without controller", "resume"},
		{"toggle without controller", "toggle"},
		{"reset without controller", "reset"},
		{"select without controller", "select"},
		{"stop without controller", "stop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rawCall(t, cfg.Paths.Socket, Request{Method: tt.method, ID: 7})
			if resp.Error == "" {
				t.Error("expected error response")
			}
			if resp.ID != 7 {
				t.Errorf("expected ID 7, got %d", resp.ID)
			}
		})
	}
}

func TestDaemon_HandleConnection_InvalidJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)
	startDaemon(t, New(cfg, nil, nil))

	conn, err := net.Dial("unix", cfg.Paths.Socket)
	if err != nil {
		t.Fatalf("dial socket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected decode error in response")
	}
}
