package daemon

import "github.com/npratt/damageflow/internal/stage"

// Request represents a JSON-RPC request from a client.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Response represents a JSON-RPC response to a client.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// StatusResponse describes the controller state and what a renderer would
// show for it.
type StatusResponse struct {
	Phase      stage.PhaseKind  `json:"phase"`
	Step       int              `json:"step"` // -1 outside main and merge phases
	Progress   stage.Progress   `json:"progress,omitempty"`
	Running    bool             `json:"running"`
	Selected   string           `json:"selected"`
	Annotation stage.Annotation `json:"annotation"`
	Marker     stage.Point      `json:"marker"`
	Uptime     string           `json:"uptime"`
	StartTime  string           `json:"start_time"`
}

// SelectParams contains parameters for the select method. An empty branch
// clears the selection.
type SelectParams struct {
	Branch string `json:"branch"`
}
