// Package hid provides USB-level discovery of HID readers. The daemon reads
// key events through the kernel's evdev layer, so this package never opens a
// device for I/O; it only answers "what is plugged in" for diagnostics and
// for waiting out a missing reader.
package hid

import (
	"context"
	"time"
)

// Info describes an attached USB HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// List enumerates attached USB HID devices.
func List() ([]Info, error) {
	return list()
}

// Present reports whether a device with the given vendor and product IDs is
// attached.
func Present(vendorID, productID uint16) (bool, error) {
	devs, err := list()
	if err != nil {
		return false, err
	}
	for _, d := range devs {
		if d.VendorID == vendorID && d.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// WaitFor blocks until a device with the given vendor and product IDs is
// attached, polling at the given interval. It returns immediately when the
// device is already present.
func WaitFor(ctx context.Context, vendorID, productID uint16, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := Present(vendorID, productID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
