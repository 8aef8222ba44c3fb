package volumio

import (
	"encoding/json"
	"testing"
)

func TestParsePush(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		raw     string
		wantErr bool
		check   func(t *testing.T, v any)
	}{
		{
			name:  "pushState",
			event: "pushState",
			raw:   `{"status":"play","title":"Help!","artist":"The Beatles","volume":61,"mute":false}`,
			check: func(t *testing.T, v any) {
				s, ok := v.(State)
				if !ok {
					t.Fatalf("expected State, got %T", v)
				}
				if s.Status != "play" || s.Artist != "The Beatles" || s.Volume != 61 {
					t.Fatalf("unexpected state: %+v", s)
				}
			},
		},
		{
			name:  "pushToastMessage",
			event: "pushToastMessage",
			raw:   `{"type":"success","title":"Playlist","message":"started"}`,
			check: func(t *testing.T, v any) {
				toast, ok := v.(Toast)
				if !ok {
					t.Fatalf("expected Toast, got %T", v)
				}
				if toast.Type != "success" {
					t.Fatalf("unexpected toast: %+v", toast)
				}
			},
		},
		{
			name:  "pushQueue",
			event: "pushQueue",
			raw:   `[{"uri":"spotify:track:x","name":"A"},{"uri":"spotify:track:y","name":"B"}]`,
			check: func(t *testing.T, v any) {
				q, ok := v.([]QueueItem)
				if !ok {
					t.Fatalf("expected []QueueItem, got %T", v)
				}
				if len(q) != 2 || q[1].Name != "B" {
					t.Fatalf("unexpected queue: %+v", q)
				}
			},
		},
		{name: "unknown event", event: "pushBrowseSources", raw: `[]`, wantErr: true},
		{name: "bad payload", event: "pushState", raw: `"nope"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParsePush(tt.event, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePush() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, v)
			}
		})
	}
}
