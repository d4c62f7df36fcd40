// Package events defines the notifications published by the stage controller
// and the channel-based router that delivers them to renderers and sinks.
package events

import (
	"time"

	"github.com/npratt/damageflow/internal/stage"
)

// EventType identifies the category and nature of an event.
type EventType string

// Event types.
const (
	EventControllerStart EventType = "controller.start"
	EventControllerStop  EventType = "controller.stop"
	EventStateChanged    EventType = "state.changed"
)

// Cause names what triggered a state change.
type Cause string

// State change causes.
const (
	CauseTick   Cause = "tick"
	CauseSettle Cause = "settle"
	CauseLoop   Cause = "loop"
	CausePause  Cause = "pause"
	CauseResume Cause = "resume"
	CauseReset  Cause = "reset"
	CauseSelect Cause = "select"
)

// SourceController identifies events emitted by the stage controller.
const SourceController = "controller"

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// NewControllerEvent creates a BaseEvent stamped with the given time.
func NewControllerEvent(t EventType, at time.Time) BaseEvent {
	return BaseEvent{EventType: t, Time: at, Src: SourceController}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// StateChangedEvent is emitted after every controller mutation. It carries
// enough of the run state to log it; renderers re-query the controller.
type StateChangedEvent struct {
	BaseEvent
	Cause    Cause           `json:"cause"`
	Phase    stage.PhaseKind `json:"phase"`
	Step     int             `json:"step"`
	Progress stage.Progress  `json:"progress,omitempty"`
	Running  bool            `json:"running"`
	Selected stage.BranchID  `json:"selected,omitempty"`
}

// ControllerStartEvent is emitted when the controller arms its first timer.
type ControllerStartEvent struct {
	BaseEvent
	MainStages  int `json:"main_stages"`
	SubStages   int `json:"sub_stages"`
	MergeStages int `json:"merge_stages"`
}

// ControllerStopEvent is emitted when the controller is closed.
type ControllerStopEvent struct {
	BaseEvent
	Reason string `json:"reason,omitempty"`
}
