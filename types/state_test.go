package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"testing"
)

func TestState_StringRoundTrip(t *testing.T) {
	for _, s := range AllStates() {
		t.Run(s.String(), func(t *testing.T) {
			got, err := ParseState(s.String())
			if err != nil {
				t.Fatalf("ParseState(%q) error: %v", s.String(), err)
			}
			if got != s {
				t.Errorf("ParseState(%q) = %v, want %v", s.String(), got, s)
			}
		})
	}
}

func TestState_Invalid(t *testing.T) {
	if State(-1).Valid() {
		t.Error("State(-1) should be invalid")
	}
	if State(NumStates).Valid() {
		t.Errorf("State(%d) should be invalid", NumStates)
	}
	if got := State(42).String(); got != "state(42)" {
		t.Errorf("State(42).String() = %q, want %q", got, "state(42)")
	}
	if _, err := ParseState("sleeping"); err == nil {
		t.Error("ParseState(sleeping) should fail")
	}
}

func TestState_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		State State `json:"state"`
	}{StateApSetWait})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"state":"ap_set_wait"}` {
		t.Errorf("json = %s, want %s", data, `{"state":"ap_set_wait"}`)
	}

	var decoded struct {
		State State `json:"state"`
	}
	if err := json.Unmarshal([]byte(`{"state":"tuning"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.State != StateTuning {
		t.Errorf("State = %v, want %v", decoded.State, StateTuning)
	}
}

func TestEvent_Names(t *testing.T) {
	if len(AllEvents()) != NumEvents {
		t.Fatalf("AllEvents() has %d entries, want %d", len(AllEvents()), NumEvents)
	}
	seen := make(map[string]bool)
	for _, e := range AllEvents() {
		name := e.String()
		if seen[name] {
			t.Errorf("duplicate event name %q", name)
		}
		seen[name] = true

		got, err := ParseEvent(name)
		if err != nil {
			t.Fatalf("ParseEvent(%q) error: %v", name, err)
		}
		if got != e {
			t.Errorf("ParseEvent(%q) = %d, want %d", name, got, e)
		}
	}
}

func TestEvent_None(t *testing.T) {
	if EventNone.Valid() {
		t.Error("EventNone must not index the table")
	}
	if EventNone.String() != "none" {
		t.Errorf("EventNone.String() = %q, want none", EventNone.String())
	}
}

func TestRoles_DefaultPortsUnique(t *testing.T) {
	seen := make(map[int]Role)
	for role, port := range DefaultPorts {
		if other, ok := seen[port]; ok {
			t.Errorf("port %d shared by %s and %s", port, role, other)
		}
		seen[port] = role
	}

	roles := AllRoles()
	if roles[0] != RoleManager {
		t.Errorf("AllRoles()[0] = %s, want %s", roles[0], RoleManager)
	}
	if _, err := ParseRole("led"); err != nil {
		t.Errorf("ParseRole(led) error: %v", err)
	}
	if _, err := ParseRole("printer"); err == nil {
		t.Error("ParseRole(printer) should fail")
	}
}
