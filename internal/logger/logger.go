//go:build !windows

// Package logger configures the process-wide logrus logger. The daemon
// normally runs under systemd, so messages go to syslog; when attached to a
// terminal they are written to stdout as well.
package logger

import (
	"io"
	"log/syslog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"

	"github.com/volumiokit/volhid/internal/config"
)

func Init(cfg config.Log) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	onTerminal := isatty.IsTerminal(os.Stdout.Fd())

	if cfg.Syslog {
		hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, "volhid")
		if err != nil {
			return err
		}
		logrus.AddHook(hook)
		if !onTerminal {
			// syslog carries everything already
			logrus.SetOutput(io.Discard)
			return nil
		}
	}

	logrus.SetOutput(os.Stdout)
	return nil
}
