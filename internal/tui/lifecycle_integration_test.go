package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/stage"
	"github.com/npratt/damageflow/internal/testutil"
)

func newLifecycleController(t *testing.T) (*controller.Controller, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock()
	ctrl := controller.New(stage.Default(), config.Default().Timing, nil,
		controller.WithClock(clk),
		controller.WithSelection(stage.NewDamage),
	)
	t.Cleanup(ctrl.Close)
	return ctrl, clk
}

// TestTUILifecycleSmoke verifies the full bubbletea program lifecycle against
// a real controller: start, receive state changes, handle keyboard input, and
// quit cleanly. teatest runs the TUI headlessly without a real TTY.
func TestTUILifecycleSmoke(t *testing.T) {
	ctrl, clk := newLifecycleController(t)
	eventChan := ctrl.SubscribeBuffered(64)
	ctrl.Start()

	var quitCalled bool
	m := newModel(eventChan, ctrl, func() { quitCalled = true }, true)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Upload Images"))
	}, teatest.WithDuration(3*time.Second))

	// One tick moves the controller to the detection stage.
	clk.Advance(2 * time.Second)
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("main 2/4"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}
	if !quitCalled {
		t.Error("quit callback was not invoked")
	}

	st := ctrl.State()
	if st.Selected != stage.NoDamage {
		t.Errorf("selected = %q, want no-damage", st.Selected)
	}
	if st.Running {
		t.Error("space should have paused the controller")
	}
	if got := fm.(model).state; got.Running || got.Selected != stage.NoDamage {
		t.Errorf("final model state = %+v", got)
	}
}

// TestTUILifecycleCloseQuits verifies that closing the controller ends the
// program through the closed subscription.
func TestTUILifecycleCloseQuits(t *testing.T) {
	ctrl, _ := newLifecycleController(t)
	eventChan := ctrl.Subscribe()
	ctrl.Start()

	m := newModel(eventChan, ctrl, nil, true)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("damageflow"))
	}, teatest.WithDuration(3*time.Second))

	ctrl.Close()

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}
}

// TestTUILifecycleCtrlCQuit verifies that ctrl+c also triggers quit.
func TestTUILifecycleCtrlCQuit(t *testing.T) {
	ctrl, _ := newLifecycleController(t)
	eventChan := ctrl.Subscribe()

	var quitCalled bool
	m := newModel(eventChan, ctrl, func() { quitCalled = true }, false)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if !quitCalled {
		t.Error("quit callback was not invoked")
	}
}
