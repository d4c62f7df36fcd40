package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/npratt/damageflow/internal/stage"
)

func TestParseEvent(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	original := &StateChangedEvent{
		BaseEvent: NewControllerEvent(EventStateChanged, at),
		Cause:     CauseTick,
		Phase:     stage.KindBranch,
		Step:      -1,
		Progress:  stage.Progress{stage.ExistingDamage: 1, stage.NewDamage: 1, stage.NoDamage: 1},
		Running:   true,
		Selected:  stage.NoDamage,
	}
	line, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	ev, err := ParseEvent(line)
	if err != nil {
		t.Fatalf("ParseEvent() error: %v", err)
	}
	got, ok := ev.(*StateChangedEvent)
	if !ok {
		t.Fatalf("ParseEvent() type = %T", ev)
	}
	if Format(got) != Format(original) {
		t.Errorf("Format mismatch:\n got %q\nwant %q", Format(got), Format(original))
	}
	if !got.Timestamp().Equal(at) || got.Source() != SourceController {
		t.Errorf("base fields = %+v", got.BaseEvent)
	}
}

func TestParseEvent_OtherTypes(t *testing.T) {
	tests := []struct {
		line string
		want EventType
	}{
		{`{"type":"controller.start","main_stages":4,"sub_stages":2,"merge_stages":2}`, EventControllerStart},
		{`{"type":"controller.stop","reason":"closed"}`, EventControllerStop},
	}
	for _, tt := range tests {
		ev, err := ParseEvent([]byte(tt.line))
		if err != nil {
			t.Fatalf("ParseEvent(%s) error: %v", tt.line, err)
		}
		if ev == nil || ev.Type() != tt.want {
			t.Errorf("ParseEvent(%s) = %#v", tt.line, ev)
		}
	}
}

func TestParseEvent_UnknownAndInvalid(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"session.start"}`))
	if err != nil || ev != nil {
		t.Errorf("unknown type = %v, %v; want nil, nil", ev, err)
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Error("invalid JSON should fail")
	}
}
