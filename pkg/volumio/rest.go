package volumio

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

// RESTClient drives Volumio through its HTTP command API. It carries less of
// the protocol than the socket channel (no push events, no shutdown) but
// needs no session, which makes it the fallback transport.
type RESTClient struct {
	http *resty.Client
}

// NewRESTClient returns a client for http://host:port/api/v1.
func NewRESTClient(host string, port int) *RESTClient {
	c := resty.New().
		SetBaseURL(fmt.Sprintf("http://%s:%d", host, port))
	return &RESTClient{http: c}
}

func (r *RESTClient) command(ctx context.Context, params map[string]string) error {
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/api/v1/commands/")
	if err != nil {
		return fmt.Errorf("volumio rest: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("volumio rest: %s: %s", resp.Status(), resp.String())
	}
	return nil
}

func (r *RESTClient) Play(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "play"})
}

func (r *RESTClient) Pause(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "pause"})
}

func (r *RESTClient) Toggle(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "toggle"})
}

func (r *RESTClient) Stop(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "stop"})
}

func (r *RESTClient) Prev(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "prev"})
}

func (r *RESTClient) Next(ctx context.Context) error {
	return r.command(ctx, map[string]string{"cmd": "next"})
}

func (r *RESTClient) SetVolume(ctx context.Context, level int) error {
	return r.command(ctx, map[string]string{"cmd": "volume", "volume": strconv.Itoa(level)})
}

func (r *RESTClient) PlayPlaylist(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("volumio: empty playlist name")
	}
	return r.command(ctx, map[string]string{"cmd": "playplaylist", "name": name})
}

// Shutdown is not exposed by the command API.
func (r *RESTClient) Shutdown(ctx context.Context) error {
	return fmt.Errorf("volumio rest: shutdown not supported over the command API")
}

// GetState fetches the current player state.
func (r *RESTClient) GetState(ctx context.Context) (State, error) {
	var s State
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&s).
		Get("/api/v1/getState")
	if err != nil {
		return State{}, fmt.Errorf("volumio rest: %w", err)
	}
	if !resp.IsSuccess() {
		return State{}, fmt.Errorf("volumio rest: %s", resp.Status())
	}
	return s, nil
}
