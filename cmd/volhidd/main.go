//go:build linux

// volhidd reads key events from a USB HID reader (RFID badge or barcode
// scanner in keyboard mode) and turns scanned tags into Volumio playback
// commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/volumiokit/volhid/internal/bridge"
	"github.com/volumiokit/volhid/internal/config"
	"github.com/volumiokit/volhid/internal/dispatch"
	"github.com/volumiokit/volhid/internal/hid"
	"github.com/volumiokit/volhid/internal/input"
	"github.com/volumiokit/volhid/internal/logger"
	"github.com/volumiokit/volhid/pkg/volumio"
)

func main() {
	configPath := flag.String("config", "/etc/volhid/config.yaml", "path to the configuration file")
	listDevices := flag.Bool("list-devices", false, "list attached USB HID and input devices, then exit")
	flag.Parse()

	if *listDevices {
		if err := printDevices(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("daemon exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Reader.WaitForDevice {
		logrus.WithFields(logrus.Fields{
			"vendor":  fmt.Sprintf("0x%04X", cfg.Reader.VendorID),
			"product": fmt.Sprintf("0x%04X", cfg.Reader.ProductID),
		}).Info("waiting for reader")
		if err := hid.WaitFor(ctx, cfg.Reader.VendorID, cfg.Reader.ProductID, 2*time.Second); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	dev, err := openReader(cfg.Reader)
	if err != nil {
		return err
	}
	defer dev.Close()

	info := dev.Info()
	logrus.WithFields(logrus.Fields{
		"path": info.Path,
		"name": info.Name,
	}).Info("reader opened")

	if cfg.Reader.Grab {
		if err := dev.Grab(); err != nil {
			return fmt.Errorf("grab %s: %w", info.Path, err)
		}
		defer dev.Ungrab()
	}

	client := volumio.New(cfg.Volumio.Host, cfg.Volumio.Port)
	client.ReconnectMin = cfg.Volumio.ReconnectMin
	client.ReconnectMax = cfg.Volumio.ReconnectMax
	client.OnState(func(s volumio.State) {
		logrus.WithFields(logrus.Fields{
			"status": s.Status,
			"title":  s.Title,
		}).Debug("player state")
	})
	go client.Run(ctx)

	var fallback volumio.Commander
	if cfg.Volumio.RESTFallback {
		fallback = volumio.NewRESTClient(cfg.Volumio.Host, cfg.Volumio.Port)
	}

	d, err := dispatch.New(client, fallback, cfg)
	if err != nil {
		return err
	}

	var br *bridge.Bridge
	if cfg.MQTT.BrokerURL != "" {
		br, err = bridge.New(ctx, cfg.MQTT)
		if err != nil {
			// the player path works without the bridge
			logrus.WithError(err).Warn("mqtt bridge disabled")
		} else {
			d.OnResult = func(r dispatch.Result) { br.PublishResult(ctx, r) }
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				br.Close(closeCtx)
			}()
		}
	}

	events := input.Poll(ctx, dev)
	scanner := input.NewScanner(cfg.Reader.IdleReset, info.Path)
	scans := scanner.Run(ctx, events)

	logrus.Info("clearance to start")

	for scan := range scans {
		logrus.WithField("serial", scan.Serial).Info("scan")
		if br != nil {
			br.PublishScan(ctx, scan)
		}
		d.HandleScan(ctx, scan)
	}

	if ctx.Err() != nil {
		logrus.Info("shutting down")
		return nil
	}
	// The read loop only ends this way when the device dies (unplugged or
	// I/O error); exit nonzero so the service manager restarts us.
	return errors.New("reader event stream ended")
}

func openReader(r config.Reader) (input.Device, error) {
	switch {
	case r.Path != "":
		return input.Open(r.Path)
	case r.ByID != "":
		return input.OpenByID(r.ByID)
	default:
		return input.OpenVIDPID(r.VendorID, r.ProductID)
	}
}

func printDevices() error {
	usb, err := hid.List()
	if err != nil {
		return fmt.Errorf("list USB HID devices: %w", err)
	}
	fmt.Println("USB HID devices:")
	for _, d := range usb {
		fmt.Printf("  %04X:%04X  %-24s %s\n", d.VendorID, d.ProductID, d.Manufacturer, d.Product)
	}

	evdev, err := input.List()
	if err != nil {
		return fmt.Errorf("list input devices: %w", err)
	}
	fmt.Println("Input devices:")
	for _, d := range evdev {
		fmt.Printf("  %-20s %04X:%04X  %s\n", d.Path, d.Vendor, d.Product, d.Name)
	}
	return nil
}
