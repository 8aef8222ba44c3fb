package bridge

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/volumiokit/volhid/internal/dispatch"
	"github.com/volumiokit/volhid/internal/input"
)

func TestTopics(t *testing.T) {
	if got := ScanTopic("home/jukebox"); got != "home/jukebox/scans" {
		t.Fatalf("scan topic = %q", got)
	}
	if got := CommandTopic("home/jukebox"); got != "home/jukebox/commands" {
		t.Fatalf("command topic = %q", got)
	}
}

func TestScanEventPayload(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := ScanEvent{Serial: "0004775724", Device: "/dev/input/event3", When: when}

	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["serial"] != "0004775724" || decoded["device"] != "/dev/input/event3" {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestCommandEventPayload(t *testing.T) {
	r := dispatch.Result{
		Scan:     input.Scan{Serial: "0004626662"},
		Action:   dispatch.ActionStop,
		Fallback: true,
		Err:      errors.New("rest down"),
	}

	ev := CommandEvent{
		Serial:   r.Scan.Serial,
		Action:   string(r.Action),
		Fallback: r.Fallback,
		Error:    r.Err.Error(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var decoded CommandEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Action != "stop" || !decoded.Fallback || decoded.Error != "rest down" {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestCommandEventOmitsEmptyFields(t *testing.T) {
	payload, err := json.Marshal(CommandEvent{Serial: "X", Action: "play"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"argument", "fallback", "error"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("expected %q to be omitted: %s", key, payload)
		}
	}
}
