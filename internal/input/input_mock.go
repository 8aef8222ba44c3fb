package input

import (
	"errors"
	"sync"
)

// MockDevice is a channel-fed Device for tests.
type MockDevice struct {
	events chan KeyEvent

	mu      sync.Mutex
	closed  bool
	grabbed bool
}

func NewMockDevice() *MockDevice {
	return &MockDevice{events: make(chan KeyEvent, 64)}
}

func (m *MockDevice) ReadKey() (KeyEvent, error) {
	ev, ok := <-m.events
	if !ok {
		return KeyEvent{}, errors.New("device closed")
	}
	return ev, nil
}

func (m *MockDevice) Grab() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grabbed = true
	return nil
}

func (m *MockDevice) Ungrab() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grabbed = false
	return nil
}

func (m *MockDevice) Info() Info {
	return Info{Path: "mock", Name: "mock device"}
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Emit feeds a key event to the pending ReadKey.
func (m *MockDevice) Emit(ev KeyEvent) {
	m.events <- ev
}

// Type emits down+up transitions for each character in s plus a final Enter,
// the way a keyboard-mode reader reports a tag.
func (m *MockDevice) Type(s string) {
	for _, r := range s {
		for code, c := range characters {
			if c == r {
				m.Emit(KeyEvent{Code: code, State: KeyDown})
				m.Emit(KeyEvent{Code: code, State: KeyUp})
				break
			}
		}
	}
	m.Emit(KeyEvent{Code: KeyEnter, State: KeyDown})
	m.Emit(KeyEvent{Code: KeyEnter, State: KeyUp})
}
