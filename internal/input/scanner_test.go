package input

import (
	"context"
	"testing"
	"time"
)

func collectScans(t *testing.T, events []KeyEvent, clock func() time.Time, idle time.Duration) []Scan {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan KeyEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	s := NewScanner(idle, "test")
	if clock != nil {
		s.now = clock
	}

	var scans []Scan
	for scan := range s.Run(ctx, ch) {
		scans = append(scans, scan)
	}
	return scans
}

func down(c Code) KeyEvent { return KeyEvent{Code: c, State: KeyDown} }
func up(c Code) KeyEvent   { return KeyEvent{Code: c, State: KeyUp} }

func TestScannerSerial(t *testing.T) {
	events := []KeyEvent{
		down(Key0), up(Key0),
		down(Key0), up(Key0),
		down(Key4), up(Key4),
		down(Key7), up(Key7),
		down(Key9), up(Key9),
		down(Key7), up(Key7),
		down(Key1), up(Key1),
		down(Key2), up(Key2),
		down(Key6), up(Key6),
		down(Key2), up(Key2),
		down(KeyEnter), up(KeyEnter),
	}
	scans := collectScans(t, events, nil, 0)
	if len(scans) != 1 {
		t.Fatalf("expected 1 scan, got %d", len(scans))
	}
	if scans[0].Serial != "0047971262" {
		t.Fatalf("unexpected serial: %q", scans[0].Serial)
	}
	if scans[0].Device != "test" {
		t.Fatalf("unexpected device: %q", scans[0].Device)
	}
}

func TestScannerEmptyEnter(t *testing.T) {
	events := []KeyEvent{
		down(KeyEnter), up(KeyEnter),
		down(KeyKPEnter), up(KeyKPEnter),
	}
	if scans := collectScans(t, events, nil, 0); len(scans) != 0 {
		t.Fatalf("expected no scans, got %d", len(scans))
	}
}

func TestScannerIgnoresUnknownAndNonDown(t *testing.T) {
	events := []KeyEvent{
		down(Key1),
		{Code: Key2, State: KeyHold}, // repeats don't double characters
		down(KeyEsc),                 // no character assigned
		up(Key3),                     // releases don't count
		down(Key2),
		down(KeyEnter),
	}
	scans := collectScans(t, events, nil, 0)
	if len(scans) != 1 || scans[0].Serial != "12" {
		t.Fatalf("unexpected scans: %+v", scans)
	}
}

func TestScannerMultipleScans(t *testing.T) {
	events := []KeyEvent{
		down(KeyA), down(KeyB), down(Key1), down(KeyEnter),
		down(Key4), down(Key2), down(KeyKPEnter),
	}
	scans := collectScans(t, events, nil, 0)
	if len(scans) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(scans))
	}
	if scans[0].Serial != "AB1" || scans[1].Serial != "42" {
		t.Fatalf("unexpected serials: %q %q", scans[0].Serial, scans[1].Serial)
	}
}

func TestScannerIdleReset(t *testing.T) {
	// First two digits arrive, then a long pause, then a full scan. The
	// stale digits must not leak into the completed scan.
	events := []KeyEvent{
		down(Key9), down(Key9),
		down(Key1), down(Key2), down(Key3), down(KeyEnter),
	}

	// One clock reading per key-down; the third key arrives after a gap
	// longer than the idle reset.
	base := time.Unix(1000, 0)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(4 * time.Second),
		base.Add(4*time.Second + 100*time.Millisecond),
		base.Add(4*time.Second + 200*time.Millisecond),
		base.Add(4*time.Second + 300*time.Millisecond),
	}
	idx := 0
	clock := func() time.Time {
		tm := times[idx]
		idx++
		return tm
	}

	scans := collectScans(t, events, clock, 2*time.Second)
	if len(scans) != 1 || scans[0].Serial != "123" {
		t.Fatalf("unexpected scans: %+v", scans)
	}
}

func TestPollMockDevice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := NewMockDevice()
	events := Poll(ctx, dev)

	go dev.Type("0004775724")

	s := NewScanner(0, dev.Info().Path)
	scans := s.Run(ctx, events)

	select {
	case scan := <-scans:
		if scan.Serial != "0004775724" {
			t.Fatalf("unexpected serial: %q", scan.Serial)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scan")
	}

	cancel()
	select {
	case _, ok := <-scans:
		if ok {
			t.Fatal("expected scan channel to close")
		}
	case <-time.After(time.Second):
		t.Fatal("scan channel did not close after cancel")
	}
}
