package input

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Scan is one complete read from the device: the characters typed before the
// terminating Enter.
type Scan struct {
	Serial string
	Device string
	When   time.Time
}

// Scanner assembles key-down events into scans. Readers in keyboard mode type
// the tag serial character by character and finish with Enter; everything
// between two Enters belongs to one scan.
type Scanner struct {
	// IdleReset discards a partial buffer when the gap between two keys
	// exceeds it, so an interrupted scan can't corrupt the next one.
	// Zero disables the reset.
	IdleReset time.Duration

	// Source names the originating device in emitted scans.
	Source string

	now func() time.Time // test override
}

// NewScanner returns a scanner for the given device info.
func NewScanner(idleReset time.Duration, source string) *Scanner {
	return &Scanner{IdleReset: idleReset, Source: source, now: time.Now}
}

// Run consumes key events and emits completed scans until the event channel
// closes or the context is cancelled. The scan channel is closed on exit.
func (s *Scanner) Run(ctx context.Context, events <-chan KeyEvent) <-chan Scan {
	out := make(chan Scan)

	go func() {
		defer close(out)

		var buf strings.Builder
		var lastKey time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.State != KeyDown {
					continue
				}

				now := s.now()
				if s.IdleReset > 0 && buf.Len() > 0 && now.Sub(lastKey) > s.IdleReset {
					logrus.WithField("partial", buf.String()).
						Debug("discarding stale scan buffer")
					buf.Reset()
				}
				lastKey = now

				if IsEnter(ev.Code) {
					if buf.Len() == 0 {
						continue
					}
					scan := Scan{Serial: buf.String(), Device: s.Source, When: now}
					buf.Reset()
					select {
					case out <- scan:
					case <-ctx.Done():
						return
					}
					continue
				}

				if c, ok := CharFor(ev.Code); ok {
					buf.WriteRune(c)
				}
			}
		}
	}()
	return out
}
