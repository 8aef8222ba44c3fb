// Package bridge publishes scan and command events to an MQTT broker so home
// automation can react to tags (lights on when the bedtime playlist starts,
// and the like). The bridge is best effort: a broker outage never blocks the
// player path.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/sirupsen/logrus"

	"github.com/volumiokit/volhid/internal/config"
	"github.com/volumiokit/volhid/internal/dispatch"
	"github.com/volumiokit/volhid/internal/input"
)

// ScanEvent is published to <prefix>/scans for every completed scan.
type ScanEvent struct {
	Serial string    `json:"serial"`
	Device string    `json:"device"`
	When   time.Time `json:"when"`
}

// CommandEvent is published to <prefix>/commands for every dispatched action.
type CommandEvent struct {
	Serial   string    `json:"serial"`
	Action   string    `json:"action"`
	Argument string    `json:"argument,omitempty"`
	Fallback bool      `json:"fallback,omitempty"`
	Error    string    `json:"error,omitempty"`
	When     time.Time `json:"when"`
}

type Bridge struct {
	cm     *autopaho.ConnectionManager
	prefix string
	log    *logrus.Entry
}

// New connects to the broker named in cfg. The connection manager reconnects
// on its own until ctx is cancelled.
func New(ctx context.Context, cfg config.MQTT) (*Bridge, error) {
	u, err := url.Parse(cfg.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("mqtt broker url: %w", err)
	}

	log := logrus.WithField("component", "mqtt")

	cliCfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     cfg.KeepAlive,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		ConnectUsername:               cfg.Username,
		ConnectPassword:               []byte(cfg.Password),
		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			log.Info("broker connection up")
		},
		OnConnectError: func(err error) {
			log.WithError(err).Warn("broker connection failed")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			OnClientError: func(err error) {
				log.WithError(err).Warn("client error")
			},
		},
	}

	cm, err := autopaho.NewConnection(ctx, cliCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &Bridge{cm: cm, prefix: cfg.TopicPrefix, log: log}, nil
}

// PublishScan announces a completed scan.
func (b *Bridge) PublishScan(ctx context.Context, scan input.Scan) {
	b.publish(ctx, ScanTopic(b.prefix), ScanEvent{
		Serial: scan.Serial,
		Device: scan.Device,
		When:   scan.When,
	})
}

// PublishResult announces a dispatched command and its outcome.
func (b *Bridge) PublishResult(ctx context.Context, r dispatch.Result) {
	ev := CommandEvent{
		Serial:   r.Scan.Serial,
		Action:   string(r.Action),
		Argument: r.Argument,
		Fallback: r.Fallback,
		When:     time.Now(),
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	b.publish(ctx, CommandTopic(b.prefix), ev)
}

func (b *Bridge) publish(ctx context.Context, topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.WithError(err).Error("encode event")
		return
	}
	// Queued publish: delivered when the broker is reachable, dropped with
	// the session otherwise. Never blocks the caller on a dead broker.
	err = b.cm.PublishViaQueue(ctx, &autopaho.QueuePublish{
		Publish: &paho.Publish{
			QoS:     1,
			Topic:   topic,
			Payload: payload,
		},
	})
	if err != nil {
		b.log.WithError(err).WithField("topic", topic).Warn("publish failed")
	}
}

// Close disconnects from the broker.
func (b *Bridge) Close(ctx context.Context) error {
	return b.cm.Disconnect(ctx)
}

// ScanTopic returns the topic scans are published to.
func ScanTopic(prefix string) string { return prefix + "/scans" }

// CommandTopic returns the topic command outcomes are published to.
func CommandTopic(prefix string) string { return prefix + "/commands" }
