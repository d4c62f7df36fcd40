package daemon

import (
	"testing"
	"time"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/stage"
	"github.com/npratt/damageflow/internal/testutil"
)

// testDaemonEnv wires a daemon to a real controller running on a fake clock.
type testDaemonEnv struct {
	clock      *testutil.FakeClock
	controller *controller.Controller
	daemon     *Daemon
	client     *Client
	stopped    chan struct{}
}

func newTestDaemonEnv(t *testing.T) *testDaemonEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)

	clk := testutil.NewFakeClock()
	ctrl := controller.New(stage.Default(), cfg.Timing, nil,
		controller.WithClock(clk),
		controller.WithSelection(stage.NewDamage),
	)
	t.Cleanup(ctrl.Close)

	stopped := make(chan struct{})
	d := New(cfg, ctrl, nil, WithOnStop(func() { close(stopped) }))

	ctrl.Start()
	startDaemon(t, d)

	return &testDaemonEnv{
		clock:      clk,
		controller: ctrl,
		daemon:     d,
		client:     NewClient(cfg.Paths.Socket),
		stopped:    stopped,
	}
}

func TestDaemonStatus_WithController(t *testing.T) {
	env := newTestDaemonEnv(t)

	status, err := env.client.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Phase != stage.KindMain || status.Step != 0 {
		t.Errorf("phase = %s step %d, want main 0", status.Phase, status.Step)
	}
	if !status.Running || status.Selected != "new-damage" {
		t.Errorf("Running/Selected = %v/%q", status.Running, status.Selected)
	}
	if status.Annotation.StageID != "upload" {
		t.Errorf("Annotation = %+v", status.Annotation)
	}

	// Three ticks through the main stages, one into the branches and one
	// onto the first sub-stage.
	env.clock.Advance(5 * 2 * time.Second)

	status, err = env.client.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Phase != stage.KindBranch || status.Step != -1 {
		t.Errorf("phase = %s step %d, want branch -1", status.Phase, status.Step)
	}
	for _, id := range stage.Branches {
		if status.Progress[id] != 1 {
			t.Errorf("progress[%s] = %d, want 1", id, status.Progress[id])
		}
	}
	if status.Annotation.Text != "New damage detected!" {
		t.Errorf("annotation text = %q", status.Annotation.Text)
	}
	want := stage.NewLayout(stage.Default()).Branches[stage.NewDamage][0]
	if status.Marker != want {
		t.Errorf("marker = %+v, want %+v", status.Marker, want)
	}
}

func TestDaemonControl_WithController(t *testing.T) {
	env := newTestDaemonEnv(t)

	if err := env.client.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if env.controller.State().Running {
		t.Error("controller should be paused")
	}

	state, err := env.client.Toggle()
	if err != nil || state != "running" {
		t.Fatalf("Toggle() = %q, %v", state, err)
	}
	state, err = env.client.Toggle()
	if err != nil || state != "paused" {
		t.Fatalf("Toggle() = %q, %v", state, err)
	}
	if err := env.client.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}

	env.clock.Advance(2 * time.Second)
	if got := env.controller.State().Phase; got != (stage.MainPhase{Step: 1}) {
		t.Fatalf("phase = %#v, want main 1", got)
	}
	if err := env.client.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if got := env.controller.State().Phase; got != (stage.MainPhase{Step: 0}) {
		t.Errorf("phase after reset = %#v", got)
	}

	sel, err := env.client.Select("existing-damage")
	if err != nil || sel != "existing-damage" {
		t.Fatalf("Select() = %q, %v", sel, err)
	}
	if env.controller.State().Selected != stage.ExistingDamage {
		t.Error("selection not applied")
	}
	if sel, err = env.client.Select("none"); err != nil || sel != "none" {
		t.Fatalf("Select(none) = %q, %v", sel, err)
	}
	if _, err := env.client.Select("scratched"); err == nil {
		t.Error("unknown branch should be rejected")
	}
	if env.controller.State().Selected != stage.NoBranch {
		t.Error("rejected select must not change the selection")
	}
}

func TestDaemonStop_WithController(t *testing.T) {
	env := newTestDaemonEnv(t)

	if err := env.client.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	select {
	case <-env.stopped:
	case <-time.After(time.Second):
		t.Fatal("onStop was not invoked")
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.daemon.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.daemon.Running() {
		t.Error("daemon should stop after a stop request")
	}
}
