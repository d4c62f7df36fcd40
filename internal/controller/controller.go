// Package controller drives the stage-progression state machine: it owns the
// run state, advances it on a clock and publishes every change.
package controller

import (
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/damageflow/internal/clock"
	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/events"
	"github.com/npratt/damageflow/internal/stage"
)

// RunState is a snapshot of the controller. It shares no memory with the
// controller, so callers may keep or modify it freely.
type RunState struct {
	Phase    stage.Phase
	Running  bool
	Selected stage.BranchID
}

// Controller advances a stage.Catalog through its phases. Timer callbacks and
// control calls are serialized, so each runs to completion before the next.
type Controller struct {
	catalog *stage.Catalog
	timing  config.TimingConfig
	clock   clock.Clock
	router  *events.Router
	logger  *slog.Logger

	mu       sync.Mutex
	phase    stage.Phase
	tracker  *stage.Tracker
	running  bool
	selected stage.BranchID
	started  bool
	closed   bool

	// timer is the single outstanding callback. gen is bumped whenever the
	// timer is cancelled so a callback that already fired becomes a no-op.
	timer clock.Timer
	gen   uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithRouter publishes state changes on an existing router.
func WithRouter(r *events.Router) Option {
	return func(ctrl *Controller) {
		ctrl.router = r
	}
}

// WithSelection sets the initially selected branch.
func WithSelection(id stage.BranchID) Option {
	return func(ctrl *Controller) {
		if id.Valid() {
			ctrl.selected = id
		}
	}
}

// WithStartPaused creates the controller with running=false.
func WithStartPaused() Option {
	return func(ctrl *Controller) {
		ctrl.running = false
	}
}

// New creates a Controller at the first main stage. The catalog must be valid.
// Nothing is scheduled until Start is called.
func New(catalog *stage.Catalog, timing config.TimingConfig, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		catalog: catalog,
		timing:  timing,
		clock:   clock.New(),
		logger:  logger,
		phase:   stage.MainPhase{Step: 0},
		tracker: stage.NewTracker(len(catalog.BranchSubStages)),
		running: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.router == nil {
		c.router = events.NewRouter(events.DefaultBufferSize)
	}
	return c
}

// Start arms the clock. Calling it again, or after Close, does nothing.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.closed {
		return
	}
	c.started = true
	c.router.Emit(&events.ControllerStartEvent{
		BaseEvent:   events.NewControllerEvent(events.EventControllerStart, c.clock.Now()),
		MainStages:  len(c.catalog.Main),
		SubStages:   len(c.catalog.BranchSubStages),
		MergeStages: len(c.catalog.Merge),
	})
	c.logger.Info("controller started", "running", c.running, "selected", c.selected.String())
	c.arm()
}

// Close cancels every pending timer and closes all subscriptions. The state
// is frozen afterwards. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.router.Emit(&events.ControllerStopEvent{
		BaseEvent: events.NewControllerEvent(events.EventControllerStop, c.clock.Now()),
		Reason:    "closed",
	})
	c.mu.Unlock()

	c.router.Close()
	c.logger.Info("controller closed")
}

// Pause freezes the machine. The pending timer is cancelled; the phase and
// branch progress are kept.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.closed {
		return
	}
	c.running = false
	c.cancel()
	c.logger.Info("paused", "phase", c.phase.Kind())
	c.emitState(events.CausePause)
}

// Resume restarts the machine. The timer for the current phase restarts with
// its full duration; time spent paused is not credited.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.closed {
		return
	}
	c.running = true
	c.arm()
	c.logger.Info("resumed", "phase", c.phase.Kind())
	c.emitState(events.CauseResume)
}

// Toggle pauses a running controller and resumes a paused one.
func (c *Controller) Toggle() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if running {
		c.Pause()
	} else {
		c.Resume()
	}
}

// Reset returns to the first main stage and clears branch progress. Pending
// timers are cancelled; running and the selection are left as they are.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.cancel()
	c.phase = stage.MainPhase{Step: 0}
	c.tracker.Reset()
	c.arm()
	c.logger.Info("reset")
	c.emitState(events.CauseReset)
}

// SelectBranch marks id as the outcome to highlight. It never affects the
// phase. Ids outside the fixed branch set are ignored.
func (c *Controller) SelectBranch(id stage.BranchID) {
	if id != stage.NoBranch && !id.Valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.selected = id
	c.logger.Debug("branch selected", "branch", id.String())
	c.emitState(events.CauseSelect)
}

// ClearSelection removes the highlighted outcome.
func (c *Controller) ClearSelection() {
	c.SelectBranch(stage.NoBranch)
}

// State returns a snapshot of the run state.
func (c *Controller) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return RunState{
		Phase:    stage.ClonePhase(c.phase),
		Running:  c.running,
		Selected: c.selected,
	}
}

// Catalog returns the catalog the controller was built with.
func (c *Controller) Catalog() *stage.Catalog {
	return c.catalog
}

// Subscribe returns a channel that receives a StateChangedEvent after every
// mutation, in mutation order. Re-query State to render.
func (c *Controller) Subscribe() <-chan events.Event {
	return c.router.Subscribe()
}

// SubscribeBuffered is Subscribe with an explicit buffer size.
func (c *Controller) SubscribeBuffered(size int) <-chan events.Event {
	return c.router.SubscribeBuffered(size)
}

// Unsubscribe stops delivery to ch and closes it.
func (c *Controller) Unsubscribe(ch <-chan events.Event) {
	c.router.Unsubscribe(ch)
}

// tick advances the machine by one step. Caller holds mu.
func (c *Controller) tick() {
	if !c.running || c.closed {
		return
	}

	switch p := c.phase.(type) {
	case stage.MainPhase:
		next := p.Step + 1
		if next >= len(c.catalog.Main) {
			c.tracker.Reset()
			c.phase = stage.BranchPhase{Progress: c.tracker.Progress()}
		} else {
			c.phase = stage.MainPhase{Step: next}
		}

	case stage.BranchPhase:
		progress, complete := c.tracker.Advance()
		if complete {
			c.phase = stage.SettlePhase{}
		} else {
			c.phase = stage.BranchPhase{Progress: progress}
		}

	case stage.MergePhase:
		if p.Step < len(c.catalog.Merge)-1 {
			c.phase = stage.MergePhase{Step: p.Step + 1}
		} else {
			c.phase = stage.LoopPause{}
		}

	default:
		// Settle and loop pause only move on their own one-shot timers.
		return
	}

	c.logger.Debug("tick", "phase", c.phase.Kind(), "step", stage.StepOf(c.phase))
	c.emitState(events.CauseTick)
	c.arm()
}

// settle releases the barrier into the first merge stage. Caller holds mu.
func (c *Controller) settle() {
	if _, ok := c.phase.(stage.SettlePhase); !ok {
		return
	}
	c.phase = stage.MergePhase{Step: 0}
	c.logger.Debug("settled", "phase", c.phase.Kind())
	c.emitState(events.CauseSettle)
	c.arm()
}

// loop starts the pipeline over after the loop pause. Caller holds mu.
func (c *Controller) loop() {
	if _, ok := c.phase.(stage.LoopPause); !ok {
		return
	}
	c.phase = stage.MainPhase{Step: 0}
	c.tracker.Reset()
	c.logger.Debug("loop", "phase", c.phase.Kind())
	c.emitState(events.CauseLoop)
	c.arm()
}

// arm schedules the callback for the current phase, replacing any pending
// one. Caller holds mu.
func (c *Controller) arm() {
	c.cancel()
	if !c.running || !c.started || c.closed {
		return
	}

	var (
		delay time.Duration
		step  func()
	)
	switch c.phase.(type) {
	case stage.SettlePhase:
		delay, step = c.timing.SettleDelay, c.settle
	case stage.LoopPause:
		delay, step = c.timing.LoopDelay, c.loop
	default:
		delay, step = c.timing.StepInterval, c.tick
	}

	gen := c.gen
	c.timer = c.clock.AfterFunc(delay, func() {
		c.fire(gen, step)
	})
}

// fire runs a timer callback unless it was superseded after being scheduled.
func (c *Controller) fire(gen uint64, step func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.closed || !c.running {
		return
	}
	c.timer = nil
	step()
}

// cancel stops the pending timer. Stopping a timer that already fired is a
// no-op; the generation bump discards its callback. Caller holds mu.
func (c *Controller) cancel() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

// emitState publishes the current state. Caller holds mu, which keeps
// notifications in mutation order.
func (c *Controller) emitState(cause events.Cause) {
	ev := &events.StateChangedEvent{
		BaseEvent: events.NewControllerEvent(events.EventStateChanged, c.clock.Now()),
		Cause:     cause,
		Phase:     c.phase.Kind(),
		Step:      stage.StepOf(c.phase),
		Running:   c.running,
		Selected:  c.selected,
	}
	if bp, ok := c.phase.(stage.BranchPhase); ok {
		ev.Progress = bp.Progress.Clone()
	}
	c.router.Emit(ev)
}
