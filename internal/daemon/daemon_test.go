package daemon

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/stage"
)

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = filepath.Join(t.TempDir(), "test.sock")

	d := New(cfg, nil, nil)

	if d.SocketPath() != cfg.Paths.Socket {
		t.Errorf("SocketPath() = %q, want %q", d.SocketPath(), cfg.Paths.Socket)
	}
	if d.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
	if d.layout != nil {
		t.Error("layout should be nil without a controller")
	}
	if d.Running() {
		t.Error("daemon should not be running before Start")
	}
	if !d.StartTime().IsZero() {
		t.Error("StartTime should be zero before Start")
	}
}

func TestNew_WithControllerAndOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctrl := controller.New(stage.Default(), config.Default().Timing, logger)
	t.Cleanup(ctrl.Close)

	stopped := false
	d := New(config.Default(), ctrl, logger, WithOnStop(func() { stopped = true }))

	if d.logger != logger {
		t.Error("logger not set")
	}
	if d.layout == nil || len(d.layout.Main) != len(stage.Default().Main) {
		t.Error("layout should be built from the controller catalog")
	}
	if d.onStop == nil {
		t.Fatal("onStop not set")
	}
	d.onStop()
	if !stopped {
		t.Error("onStop callback not invoked")
	}
}
