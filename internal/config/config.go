package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the daemon configuration, loaded from a YAML file with
// VOLHID_* environment overrides.
type Config struct {
	Reader  Reader
	Volumio Volumio
	Log     Log
	MQTT    MQTT

	// Mappings assigns scanned serials to player actions. The key is the
	// serial exactly as the reader types it.
	Mappings map[string]Mapping

	Playlists Playlists
}

// Reader selects and tunes the input device. Exactly one of Path, ByID or
// VendorID/ProductID must identify the device.
type Reader struct {
	Path      string // absolute evdev node, e.g. /dev/input/event3
	ByID      string // name under /dev/input/by-id
	VendorID  uint16
	ProductID uint16

	// Grab takes the device exclusively so scans don't reach the console.
	Grab bool

	// IdleReset discards a partial scan buffer after this much silence.
	IdleReset time.Duration

	// WaitForDevice blocks startup until the device is plugged in instead
	// of failing. Requires VendorID/ProductID.
	WaitForDevice bool
}

// Volumio locates the player and tunes the connection.
type Volumio struct {
	Host string
	Port int

	// RESTFallback retries failed commands over the HTTP command API.
	RESTFallback bool

	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (v Volumio) Addr() string {
	return fmt.Sprintf("%s:%d", v.Host, v.Port)
}

type Log struct {
	Level  string
	Syslog bool
}

// MQTT configures the optional home-automation event bridge. The bridge is
// disabled unless BrokerURL is set.
type MQTT struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	KeepAlive   uint16
}

// Mapping binds a serial to an action. Argument carries the playlist name
// for the playlist action and the level for the volume action.
type Mapping struct {
	Action   string
	Argument string
}

// Playlists controls the fallback rule for unmapped serials: a serial of
// exactly SerialLength digits plays the playlist named by the serial.
type Playlists struct {
	AutoPlay     bool
	SerialLength int
}

// Load reads the configuration file at path and applies defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("volhid")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reader.grab", true)
	v.SetDefault("reader.idlereset", 2*time.Second)
	v.SetDefault("volumio.host", "localhost")
	v.SetDefault("volumio.port", 3000)
	v.SetDefault("volumio.restfallback", true)
	v.SetDefault("volumio.reconnectmin", time.Second)
	v.SetDefault("volumio.reconnectmax", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("mqtt.clientid", "volhid")
	v.SetDefault("mqtt.topicprefix", "volhid")
	v.SetDefault("mqtt.keepalive", 30)
	v.SetDefault("playlists.autoplay", true)
	v.SetDefault("playlists.seriallength", 10)
}

// Validate checks the parts that would otherwise fail deep inside the daemon.
func (c *Config) Validate() error {
	r := c.Reader
	if r.Path == "" && r.ByID == "" && (r.VendorID == 0 || r.ProductID == 0) {
		return fmt.Errorf("reader: one of path, byid or vendorid/productid is required")
	}
	if r.WaitForDevice && (r.VendorID == 0 || r.ProductID == 0) {
		return fmt.Errorf("reader: waitfordevice requires vendorid and productid")
	}
	if c.Volumio.Port <= 0 || c.Volumio.Port > 65535 {
		return fmt.Errorf("volumio: port %d out of range", c.Volumio.Port)
	}
	if c.Playlists.AutoPlay && c.Playlists.SerialLength <= 0 {
		return fmt.Errorf("playlists: seriallength must be positive")
	}
	for serial, m := range c.Mappings {
		if m.Action == "" {
			return fmt.Errorf("mappings: %q has no action", serial)
		}
	}
	return nil
}
