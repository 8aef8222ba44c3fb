//go:build linux

package input

import (
	"fmt"
	"path/filepath"

	evdev "github.com/holoplot/go-evdev"
)

const byIDDir = "/dev/input/by-id"

type evdevDevice struct {
	dev  *evdev.InputDevice
	info Info
}

// Open opens the evdev node at path.
func Open(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return wrap(dev, path), nil
}

// OpenByID opens a device by its stable name under /dev/input/by-id, e.g.
// "usb-13ba_Barcode_Reader-event-kbd".
func OpenByID(name string) (Device, error) {
	return Open(filepath.Join(byIDDir, name))
}

// OpenVIDPID opens the first key-capable device matching the USB vendor and
// product IDs.
func OpenVIDPID(vendor, product uint16) (Device, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		id, err := dev.InputID()
		if err != nil || id.Vendor != vendor || id.Product != product {
			dev.Close()
			continue
		}
		if len(dev.CapableEvents(evdev.EV_KEY)) == 0 {
			dev.Close()
			continue
		}
		return wrap(dev, p.Path), nil
	}
	return nil, fmt.Errorf("no input device with VID:0x%04X PID:0x%04X", vendor, product)
}

// List enumerates all evdev devices.
func List() ([]Info, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	var infos []Info
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		infos = append(infos, describe(dev, p.Path))
		dev.Close()
	}
	return infos, nil
}

func wrap(dev *evdev.InputDevice, path string) *evdevDevice {
	return &evdevDevice{dev: dev, info: describe(dev, path)}
}

func describe(dev *evdev.InputDevice, path string) Info {
	info := Info{Path: path}
	if name, err := dev.Name(); err == nil {
		info.Name = name
	}
	if id, err := dev.InputID(); err == nil {
		info.Vendor = id.Vendor
		info.Product = id.Product
	}
	return info
}

// ReadKey blocks until the next key transition, skipping non-key events
// (EV_SYN, EV_MSC scan codes).
func (d *evdevDevice) ReadKey() (KeyEvent, error) {
	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			return KeyEvent{}, err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		return KeyEvent{Code: Code(ev.Code), State: KeyState(ev.Value)}, nil
	}
}

func (d *evdevDevice) Grab() error   { return d.dev.Grab() }
func (d *evdevDevice) Ungrab() error { return d.dev.Ungrab() }
func (d *evdevDevice) Info() Info    { return d.info }
func (d *evdevDevice) Close() error  { return d.dev.Close() }
