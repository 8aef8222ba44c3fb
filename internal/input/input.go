package input

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Code is a kernel input event key code (KEY_* from linux/input-event-codes.h).
type Code uint16

// KeyState is the value field of an EV_KEY event.
type KeyState int32

const (
	KeyUp   KeyState = 0
	KeyDown KeyState = 1
	KeyHold KeyState = 2
)

// KeyEvent is a single key transition read from a device.
type KeyEvent struct {
	Code  Code
	State KeyState
}

// Info describes an input device.
type Info struct {
	Path    string
	Name    string
	Vendor  uint16
	Product uint16
}

// Device represents an opened input event device.
type Device interface {
	ReadKey() (KeyEvent, error) // blocks until the next EV_KEY event
	Grab() error                // take the device exclusively
	Ungrab() error
	Info() Info
	Close() error
}

// Poll reads key events into a channel until the context is cancelled or the
// device errors. The channel is closed on exit. Cancelling the context closes
// the device to unblock the pending read.
func Poll(ctx context.Context, dev Device) <-chan KeyEvent {
	out := make(chan KeyEvent)

	stop := context.AfterFunc(ctx, func() {
		dev.Close()
	})

	go func() {
		defer close(out)
		defer stop()
		for {
			ev, err := dev.ReadKey()
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).WithField("device", dev.Info().Path).
						Error("input device read failed")
				}
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
