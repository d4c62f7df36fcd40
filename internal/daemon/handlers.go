package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/npratt/damageflow/internal/stage"
)

// stopDelay lets the stop response reach the client before the listener closes.
const stopDelay = 100 * time.Millisecond

// handleRequest dispatches the request to the appropriate handler.
func (d *Daemon) handleRequest(ctx context.Context, req *Request) Response {
	switch req.Method {
	case "status":
		return d.handleStatus()
	case "pause":
		return d.handlePause()
	case "resume":
		return d.handleResume()
	case "toggle":
		return d.handleToggle()
	case "reset":
		return d.handleReset()
	case "select":
		return d.handleSelect(req)
	case "stop":
		return d.handleStop()
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// handleStatus returns the current controller status.
func (d *Daemon) handleStatus() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}
	return Response{Result: d.status()}
}

func (d *Daemon) status() StatusResponse {
	state := d.controller.State()

	d.mu.RLock()
	startTime := d.startTime
	d.mu.RUnlock()

	resp := StatusResponse{
		Phase:      state.Phase.Kind(),
		Step:       stage.StepOf(state.Phase),
		Running:    state.Running,
		Selected:   state.Selected.String(),
		Annotation: stage.Annotate(d.controller.Catalog(), state.Phase, state.Selected),
		Marker:     stage.MarkerPosition(state.Phase, state.Selected, d.layout),
		Uptime:     time.Since(startTime).Truncate(time.Second).String(),
		StartTime:  startTime.Format(time.RFC3339),
	}
	if bp, ok := state.Phase.(stage.BranchPhase); ok {
		resp.Progress = bp.Progress
	}
	return resp
}

// handlePause pauses the controller.
func (d *Daemon) handlePause() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	d.controller.Pause()
	return Response{Result: "paused"}
}

// handleResume resumes the controller.
func (d *Daemon) handleResume() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	d.controller.Resume()
	return Response{Result: "running"}
}

// handleToggle flips between running and paused and reports the new state.
func (d *Daemon) handleToggle() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	d.controller.Toggle()
	if d.controller.State().Running {
		return Response{Result: "running"}
	}
	return Response{Result: "paused"}
}

// handleReset restarts the pipeline from the first stage.
func (d *Daemon) handleReset() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	d.controller.Reset()
	return Response{Result: "reset"}
}

// handleSelect changes the highlighted outcome.
func (d *Daemon) handleSelect(req *Request) Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	var branch string
	if params, ok := req.Params.(map[string]interface{}); ok {
		if b, ok := params["branch"].(string); ok {
			branch = b
		}
	}

	id, err := stage.ParseBranchID(branch)
	if err != nil {
		return Response{Error: err.Error()}
	}

	d.controller.SelectBranch(id)
	return Response{Result: id.String()}
}

// handleStop notifies the host and schedules daemon shutdown.
func (d *Daemon) handleStop() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	if d.onStop != nil {
		d.onStop()
	}

	go func() {
		time.Sleep(stopDelay)
		_ = d.Stop()
	}()

	return Response{Result: "stopping"}
}
