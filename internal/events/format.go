package events

import (
	"fmt"
	"strings"

	"github.com/npratt/damageflow/internal/stage"
)

// Format converts an event to a one-line human-readable string.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *StateChangedEvent:
		return formatStateChanged(e)
	case *ControllerStartEvent:
		return fmt.Sprintf("controller started (%d main, %d per branch, %d merge)",
			e.MainStages, e.SubStages, e.MergeStages)
	case *ControllerStopEvent:
		if e.Reason == "" {
			return "controller stopped"
		}
		return "controller stopped: " + e.Reason
	default:
		return ""
	}
}

func formatStateChanged(e *StateChangedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Cause, e.Phase)

	switch e.Phase {
	case stage.KindMain, stage.KindMerge:
		fmt.Fprintf(&b, " step=%d", e.Step)
	case stage.KindBranch:
		parts := make([]string, 0, len(stage.Branches))
		for _, id := range stage.Branches {
			parts = append(parts, fmt.Sprintf("%s=%d", id, e.Progress[id]))
		}
		b.WriteString(" " + strings.Join(parts, " "))
	}

	if !e.Running {
		b.WriteString(" (paused)")
	}
	if e.Selected != stage.NoBranch {
		fmt.Fprintf(&b, " selected=%s", e.Selected)
	}
	return b.String()
}
