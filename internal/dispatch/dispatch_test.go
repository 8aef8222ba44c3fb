package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/volumiokit/volhid/internal/config"
	"github.com/volumiokit/volhid/internal/input"
)

// fakeCommander records calls and optionally fails everything.
type fakeCommander struct {
	calls []string
	fail  error
}

func (f *fakeCommander) record(call string) error {
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeCommander) Play(context.Context) error   { return f.record("play") }
func (f *fakeCommander) Pause(context.Context) error  { return f.record("pause") }
func (f *fakeCommander) Toggle(context.Context) error { return f.record("toggle") }
func (f *fakeCommander) Stop(context.Context) error   { return f.record("stop") }
func (f *fakeCommander) Prev(context.Context) error   { return f.record("prev") }
func (f *fakeCommander) Next(context.Context) error   { return f.record("next") }

func (f *fakeCommander) SetVolume(_ context.Context, level int) error {
	return f.record(fmt.Sprintf("volume:%d", level))
}

func (f *fakeCommander) PlayPlaylist(_ context.Context, name string) error {
	return f.record("playlist:" + name)
}

func (f *fakeCommander) Shutdown(context.Context) error { return f.record("shutdown") }

func testConfig() *config.Config {
	return &config.Config{
		Mappings: map[string]config.Mapping{
			"0004775724": {Action: "play"},
			"0004626662": {Action: "stop"},
			"0004797126": {Action: "previous"},
			"0004797218": {Action: "next"},
			"0005156540": {Action: "shutdown"},
			"BEDTIME":    {Action: "playlist", Argument: "bedtime stories"},
			"QUIET":      {Action: "volume", Argument: "20"},
		},
		Playlists: config.Playlists{AutoPlay: true, SerialLength: 10},
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("prev"); err != nil || a != ActionPrevious {
		t.Fatalf("prev alias: %v %v", a, err)
	}
	if _, err := ParseAction("louder"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestNewRejectsBadMappings(t *testing.T) {
	tests := []struct {
		name    string
		mapping config.Mapping
	}{
		{"unknown action", config.Mapping{Action: "louder"}},
		{"playlist without argument", config.Mapping{Action: "playlist"}},
		{"volume with non-numeric argument", config.Mapping{Action: "volume", Argument: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mappings: map[string]config.Mapping{"X": tt.mapping}}
			if _, err := New(&fakeCommander{}, nil, cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHandleScan(t *testing.T) {
	tests := []struct {
		name   string
		serial string
		want   []string
	}{
		{"mapped play", "0004775724", []string{"play"}},
		{"mapped stop", "0004626662", []string{"stop"}},
		{"mapped shutdown", "0005156540", []string{"shutdown"}},
		{"mapped named playlist", "BEDTIME", []string{"playlist:bedtime stories"}},
		{"mapped volume", "QUIET", []string{"volume:20"}},
		{"autoplay serial", "0004111222", []string{"playlist:0004111222"}},
		{"wrong length", "12345", nil},
		{"non-numeric unmapped", "ABCDEFGHIJ", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeCommander{}
			d, err := New(primary, nil, testConfig())
			if err != nil {
				t.Fatal(err)
			}
			d.HandleScan(context.Background(), input.Scan{Serial: tt.serial})
			if len(primary.calls) != len(tt.want) {
				t.Fatalf("calls = %v, want %v", primary.calls, tt.want)
			}
			for i := range tt.want {
				if primary.calls[i] != tt.want[i] {
					t.Fatalf("calls = %v, want %v", primary.calls, tt.want)
				}
			}
		})
	}
}

func TestFallback(t *testing.T) {
	primary := &fakeCommander{fail: errors.New("socket down")}
	fallback := &fakeCommander{}
	d, err := New(primary, fallback, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var results []Result
	d.OnResult = func(r Result) { results = append(results, r) }

	d.HandleScan(context.Background(), input.Scan{Serial: "0004775724"})

	if len(primary.calls) != 1 || len(fallback.calls) != 1 {
		t.Fatalf("primary=%v fallback=%v", primary.calls, fallback.calls)
	}
	if len(results) != 1 || results[0].Err != nil || !results[0].Fallback {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestFallbackAlsoFails(t *testing.T) {
	primary := &fakeCommander{fail: errors.New("socket down")}
	fallback := &fakeCommander{fail: errors.New("rest down")}
	d, err := New(primary, fallback, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var got Result
	d.OnResult = func(r Result) { got = r }

	d.HandleScan(context.Background(), input.Scan{Serial: "0004775724"})
	if got.Err == nil {
		t.Fatal("expected error result")
	}
}

func TestRunConsumesUntilClosed(t *testing.T) {
	primary := &fakeCommander{}
	d, err := New(primary, nil, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	scans := make(chan input.Scan, 2)
	scans <- input.Scan{Serial: "0004775724"}
	scans <- input.Scan{Serial: "0004626662"}
	close(scans)

	d.Run(context.Background(), scans)

	if len(primary.calls) != 2 || primary.calls[0] != "play" || primary.calls[1] != "stop" {
		t.Fatalf("calls = %v", primary.calls)
	}
}
