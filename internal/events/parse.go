package events

import "encoding/json"

// eventEnvelope is used for initial JSON parsing to determine event type.
type eventEnvelope struct {
	Type EventType `json:"type"`
}

// ParseEvent parses a JSON line written by LogSink back into a typed Event.
// Returns nil with no error for unknown event types.
func ParseEvent(line []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}

	var (
		ev  Event
		err error
	)
	switch envelope.Type {
	case EventStateChanged:
		var e StateChangedEvent
		err = json.Unmarshal(line, &e)
		ev = &e
	case EventControllerStart:
		var e ControllerStartEvent
		err = json.Unmarshal(line, &e)
		ev = &e
	case EventControllerStop:
		var e ControllerStopEvent
		err = json.Unmarshal(line, &e)
		ev = &e
	default:
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return ev, nil
}
