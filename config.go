package rtmp

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LimitType controls how a ClientBW advertisement asks the peer to enforce
// the bandwidth ceiling: 0=hard, 1=soft, 2=dynamic.
type LimitType byte

const (
	LimitHard    LimitType = 0
	LimitSoft    LimitType = 1
	LimitDynamic LimitType = 2
)

// ConnectionConfig holds every per-connection tunable knob. Zero values are
// replaced by setDefaults with the documented defaults, except
// PingIntervalMs: a nil pointer means "unset, apply the default" while an
// explicit 0 means "disable keep-alive pings", so the field has to carry
// that distinction through decode.
type ConnectionConfig struct {
	PingIntervalMs             *int      `yaml:"ping_interval_ms"`
	MaxInactivityMs            int       `yaml:"max_inactivity_ms"`
	MaxHandshakeTimeoutMs      int       `yaml:"max_handshake_timeout_ms"`
	BytesReadIntervalBytes     int64     `yaml:"bytes_read_interval_bytes"`
	MaxHandlingTimeoutMs       int64     `yaml:"max_handling_timeout_ms"`
	QueueThresholdForAudioDrop int       `yaml:"queue_threshold_for_audio_drop"`
	LimitType                  LimitType `yaml:"limit_type"`
}

// intPtr is a convenience for populating ConnectionConfig.PingIntervalMs,
// the one field where nil and 0 mean different things.
func intPtr(n int) *int { return &n }

func (c *ConnectionConfig) setDefaults() {
	if c.PingIntervalMs == nil {
		d := 5000
		c.PingIntervalMs = &d
	}
	if c.MaxInactivityMs == 0 {
		c.MaxInactivityMs = 60000
	}
	if c.MaxHandshakeTimeoutMs == 0 {
		c.MaxHandshakeTimeoutMs = 5000
	}
	if c.BytesReadIntervalBytes == 0 {
		c.BytesReadIntervalBytes = 1024 * 1024
	}
	if c.MaxHandlingTimeoutMs == 0 {
		c.MaxHandlingTimeoutMs = 500
	}
}

// ServerConfig is the top-level configuration for the demo server in
// cmd/rtmpd: where to listen and the per-connection defaults to hand out.
type ServerConfig struct {
	ListenAddr string           `yaml:"listen_addr"`
	Connection ConnectionConfig `yaml:"connection"`
}

func (c *ServerConfig) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":1935"
	}
	c.Connection.setDefaults()
}

// LoadServerConfig reads and strictly decodes a YAML server configuration,
// applying defaults for anything left unset.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ServerConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}
