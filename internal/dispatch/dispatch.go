// Package dispatch turns scanned tag serials into player commands.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/volumiokit/volhid/internal/config"
	"github.com/volumiokit/volhid/internal/input"
	"github.com/volumiokit/volhid/pkg/volumio"
)

// Action is a playback action a tag can be mapped to.
type Action string

const (
	ActionPlay     Action = "play"
	ActionPause    Action = "pause"
	ActionToggle   Action = "toggle"
	ActionStop     Action = "stop"
	ActionPrevious Action = "previous"
	ActionNext     Action = "next"
	ActionVolume   Action = "volume"
	ActionPlaylist Action = "playlist"
	ActionShutdown Action = "shutdown"
)

// ParseAction resolves a configured action name.
func ParseAction(s string) (Action, error) {
	switch s {
	case "play":
		return ActionPlay, nil
	case "pause":
		return ActionPause, nil
	case "toggle":
		return ActionToggle, nil
	case "stop":
		return ActionStop, nil
	case "previous", "prev":
		return ActionPrevious, nil
	case "next":
		return ActionNext, nil
	case "volume":
		return ActionVolume, nil
	case "playlist":
		return ActionPlaylist, nil
	case "shutdown":
		return ActionShutdown, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Mapping is a resolved serial binding.
type Mapping struct {
	Action   Action
	Argument string
}

// Result records the outcome of one scan for logging and the event bridge.
type Result struct {
	Scan     input.Scan
	Action   Action
	Argument string
	Fallback bool // command went through the REST fallback
	Err      error
}

// Dispatcher routes scans to a Commander, retrying once on the fallback
// transport when the primary fails.
type Dispatcher struct {
	Primary  volumio.Commander
	Fallback volumio.Commander // optional

	Mappings     map[string]Mapping
	AutoPlay     bool
	SerialLength int

	// OnResult, when set, observes every handled scan. Called from the
	// dispatch goroutine.
	OnResult func(Result)

	log *logrus.Entry
}

// New builds a dispatcher from the loaded configuration, resolving all
// mapped action names up front.
func New(primary, fallback volumio.Commander, cfg *config.Config) (*Dispatcher, error) {
	mappings := make(map[string]Mapping, len(cfg.Mappings))
	for serial, m := range cfg.Mappings {
		action, err := ParseAction(m.Action)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: %w", serial, err)
		}
		if action == ActionPlaylist && m.Argument == "" {
			return nil, fmt.Errorf("mapping %q: playlist action needs an argument", serial)
		}
		if action == ActionVolume {
			if _, err := strconv.Atoi(m.Argument); err != nil {
				return nil, fmt.Errorf("mapping %q: volume argument %q is not a number", serial, m.Argument)
			}
		}
		// viper lowercases config keys, so serial matching is
		// case-insensitive throughout
		mappings[strings.ToLower(serial)] = Mapping{Action: action, Argument: m.Argument}
	}

	return &Dispatcher{
		Primary:      primary,
		Fallback:     fallback,
		Mappings:     mappings,
		AutoPlay:     cfg.Playlists.AutoPlay,
		SerialLength: cfg.Playlists.SerialLength,
		log:          logrus.WithField("component", "dispatch"),
	}, nil
}

// Run consumes scans until the channel closes or the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, scans <-chan input.Scan) {
	for {
		select {
		case <-ctx.Done():
			return
		case scan, ok := <-scans:
			if !ok {
				return
			}
			d.HandleScan(ctx, scan)
		}
	}
}

// HandleScan resolves and executes the action for one scan.
func (d *Dispatcher) HandleScan(ctx context.Context, scan input.Scan) {
	action, argument, ok := d.resolve(scan.Serial)
	if !ok {
		d.log.WithField("serial", scan.Serial).Info("no action for scan")
		return
	}

	res := Result{Scan: scan, Action: action, Argument: argument}
	res.Err = d.execute(ctx, d.Primary, action, argument)
	if res.Err != nil && d.Fallback != nil {
		d.log.WithError(res.Err).WithField("action", action).
			Warn("primary transport failed, retrying over REST")
		res.Fallback = true
		res.Err = d.execute(ctx, d.Fallback, action, argument)
	}

	entry := d.log.WithFields(logrus.Fields{
		"serial": scan.Serial,
		"action": action,
	})
	if res.Err != nil {
		entry.WithError(res.Err).Error("command failed")
	} else {
		entry.Info("command sent")
	}

	if d.OnResult != nil {
		d.OnResult(res)
	}
}

func (d *Dispatcher) resolve(serial string) (Action, string, bool) {
	if m, ok := d.Mappings[strings.ToLower(serial)]; ok {
		return m.Action, m.Argument, true
	}
	if d.AutoPlay && len(serial) == d.SerialLength && allDigits(serial) {
		return ActionPlaylist, serial, true
	}
	return "", "", false
}

func (d *Dispatcher) execute(ctx context.Context, c volumio.Commander, action Action, argument string) error {
	switch action {
	case ActionPlay:
		return c.Play(ctx)
	case ActionPause:
		return c.Pause(ctx)
	case ActionToggle:
		return c.Toggle(ctx)
	case ActionStop:
		return c.Stop(ctx)
	case ActionPrevious:
		return c.Prev(ctx)
	case ActionNext:
		return c.Next(ctx)
	case ActionVolume:
		level, err := strconv.Atoi(argument)
		if err != nil {
			return fmt.Errorf("volume argument %q: %w", argument, err)
		}
		return c.SetVolume(ctx, level)
	case ActionPlaylist:
		return c.PlayPlaylist(ctx, argument)
	case ActionShutdown:
		return c.Shutdown(ctx)
	}
	return fmt.Errorf("unhandled action %q", action)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
