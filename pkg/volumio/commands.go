package volumio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Commander is the playback-control surface the daemon needs. Both the
// socket.io client and the REST fallback implement it.
type Commander interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Toggle(ctx context.Context) error
	Stop(ctx context.Context) error
	Prev(ctx context.Context) error
	Next(ctx context.Context) error
	SetVolume(ctx context.Context, level int) error
	PlayPlaylist(ctx context.Context, name string) error
	Shutdown(ctx context.Context) error
}

// Event names Volumio listens for on the socket channel.
const (
	eventPlay         = "play"
	eventPause        = "pause"
	eventToggle       = "toggle"
	eventStop         = "stop"
	eventPrev         = "prev"
	eventNext         = "next"
	eventVolume       = "volume"
	eventPlayPlaylist = "playPlaylist"
	eventShutdown     = "shutdown"
	eventGetState     = "getState"
)

func (c *Client) Play(ctx context.Context) error   { return c.Emit(ctx, eventPlay) }
func (c *Client) Pause(ctx context.Context) error  { return c.Emit(ctx, eventPause) }
func (c *Client) Toggle(ctx context.Context) error { return c.Emit(ctx, eventToggle) }
func (c *Client) Stop(ctx context.Context) error   { return c.Emit(ctx, eventStop) }
func (c *Client) Prev(ctx context.Context) error   { return c.Emit(ctx, eventPrev) }
func (c *Client) Next(ctx context.Context) error   { return c.Emit(ctx, eventNext) }

func (c *Client) SetVolume(ctx context.Context, level int) error {
	return c.Emit(ctx, eventVolume, level)
}

// PlayPlaylist stops the current playback before starting the playlist, the
// way the Volumio UI does; starting a playlist mid-track otherwise queues
// behind it.
func (c *Client) PlayPlaylist(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("volumio: empty playlist name")
	}
	if err := c.Emit(ctx, eventStop); err != nil {
		return err
	}
	return c.Emit(ctx, eventPlayPlaylist, map[string]string{"name": name})
}

func (c *Client) Shutdown(ctx context.Context) error { return c.Emit(ctx, eventShutdown) }

// RequestState asks the server to push its current state.
func (c *Client) RequestState(ctx context.Context) error { return c.Emit(ctx, eventGetState) }

// State is the player state pushed as pushState.
type State struct {
	Status   string `json:"status"` // play, pause, stop
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Position int    `json:"position"`
	Seek     int    `json:"seek"`
	Duration int    `json:"duration"`
	Volume   int    `json:"volume"`
	Mute     bool   `json:"mute"`
	Service  string `json:"service"`
}

// Toast is a UI notification pushed as pushToastMessage.
type Toast struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// QueueItem is one entry of the queue pushed as pushQueue.
type QueueItem struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	Service string `json:"service"`
}

type pushParser func(json.RawMessage) (any, error)

func wrappedParser[T any](f func(json.RawMessage) (T, error)) pushParser {
	return func(raw json.RawMessage) (any, error) {
		return f(raw)
	}
}

// pushParsers decodes the push events the daemon cares about; anything else
// stays raw for handlers registered via On.
var pushParsers = map[string]pushParser{
	"pushState":        wrappedParser(parseState),
	"pushToastMessage": wrappedParser(parseToast),
	"pushQueue":        wrappedParser(parseQueue),
}

func parseState(raw json.RawMessage) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode pushState: %w", err)
	}
	return s, nil
}

func parseToast(raw json.RawMessage) (Toast, error) {
	var t Toast
	if err := json.Unmarshal(raw, &t); err != nil {
		return Toast{}, fmt.Errorf("decode pushToastMessage: %w", err)
	}
	return t, nil
}

func parseQueue(raw json.RawMessage) ([]QueueItem, error) {
	var q []QueueItem
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode pushQueue: %w", err)
	}
	return q, nil
}

// ParsePush decodes a known push event payload into its typed form.
func ParsePush(event string, raw json.RawMessage) (any, error) {
	parser, ok := pushParsers[event]
	if !ok {
		return nil, fmt.Errorf("volumio: no parser for %q", event)
	}
	return parser(raw)
}

// OnState registers a typed handler for pushState events.
func (c *Client) OnState(fn func(State)) {
	c.On("pushState", func(raw json.RawMessage) {
		s, err := parseState(raw)
		if err != nil {
			logrus.WithError(err).Warn("bad pushState payload")
			return
		}
		fn(s)
	})
}
