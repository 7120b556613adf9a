package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration file structure.
type Config struct {
	Logger    LogConf        // Logger holds the log level.
	MQTT      MQTTConf       // MQTT holds the broker connection settings.
	Universes []UniverseConf `toml:"universe"` // Universes lists the DMX universes to drive.
}

// LogConf holds the logger settings.
type LogConf struct {
	Level string `toml:"log-level"`
}

// MQTTConf holds the broker connection settings.
type MQTTConf struct {
	ClientID string `toml:"clientID"`
	Host     string `toml:"server"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Qos      byte   `toml:"qos"`
}

// UniverseConf describes one DMX universe and the gateway it is sent to.
type UniverseConf struct {
	Host                string      `toml:"host"`
	Port                int         `toml:"port"`     // 0 selects the protocol default.
	Protocol            string      `toml:"protocol"` // artnet, kinet or sacn.
	Universe            uint16      `toml:"universe"`
	DMXChannels         int         `toml:"dmx-channels"`
	DefaultLevel        uint8       `toml:"default-level"`
	SendLevelsOnStartup *bool       `toml:"send-levels-on-startup"` // nil means true.
	Lights              []LightConf `toml:"light"`
}

// LightConf describes one fixture mapped onto the universe.
type LightConf struct {
	Name         string    `toml:"name"`
	Channel      int       `toml:"channel"` // 1-based DMX channel of the first slot.
	Type         string    `toml:"type"`
	DefaultLevel *uint8    `toml:"default-level"` // nil falls back to the universe default.
	DefaultRGB   *[3]uint8 `toml:"default-rgb"`
	WhiteValue   uint8     `toml:"white-value"`
	Transition   float64   `toml:"transition"` // default fade time in seconds.
	ChannelSetup string    `toml:"channel-setup"`
}

// NewConfig reads and decodes the configuration file.
func NewConfig(path string) (*Config, error) {
	cfg := Config{
		Logger: LogConf{Level: "info"},
		MQTT:   MQTTConf{},
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	for i := range cfg.Universes {
		normalize(&cfg.Universes[i])
	}
	return &cfg, nil
}

func normalize(u *UniverseConf) {
	if u.DMXChannels == 0 {
		u.DMXChannels = 512
	}
	if u.Protocol == "" {
		u.Protocol = "artnet"
	}
	for i := range u.Lights {
		l := &u.Lights[i]
		if l.Name == "" {
			l.Name = fmt.Sprintf("channel-%d", l.Channel)
		}
		if l.Type == "" {
			l.Type = "dimmer"
		}
	}
}

// SendOnStartup reports whether the universe should emit one frame of
// default levels before any animation runs. Defaults to true.
func (u *UniverseConf) SendOnStartup() bool {
	return u.SendLevelsOnStartup == nil || *u.SendLevelsOnStartup
}
