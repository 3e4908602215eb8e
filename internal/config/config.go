package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nmea-link/internal/nmea"
	"nmea-link/internal/serialport"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Relay   RelayConfig   `yaml:"relay"`
	Web     WebConfig     `yaml:"web"`
	LED     LEDConfig     `yaml:"led"`
	Gateway GatewayConfig `yaml:"gateway"`
	Log     LogConfig     `yaml:"log"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	Backend     string        `yaml:"backend"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type RelayConfig struct {
	// UDPDest is host:port for the datagram relay, normally the AP broadcast
	// address. "off" disables it.
	UDPDest string     `yaml:"udp_dest"`
	MQTT    MQTTConfig `yaml:"mqtt"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      int    `yaml:"qos"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

// LEDConfig selects the GPIO lines of the RGB status LED. Lines are given by
// name (e.g. GPIO17) and looked up on Chip, or on every chip when Chip is empty.
type LEDConfig struct {
	Enable    bool          `yaml:"enable"`
	Chip      string        `yaml:"chip"`
	RedLine   string        `yaml:"red_line"`
	GreenLine string        `yaml:"green_line"`
	BlueLine  string        `yaml:"blue_line"`
	Flash     time.Duration `yaml:"flash"`
}

type GatewayConfig struct {
	Role           string        `yaml:"role"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MonitorLines   int           `yaml:"monitor_lines"`
	GeneratorLines int           `yaml:"generator_lines"`
	Slots          []SlotConfig  `yaml:"slots"`
}

type SlotConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Sensor   string        `yaml:"sensor"`
	Sentence string        `yaml:"sentence"`
	Text     string        `yaml:"text"`
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	BufferLines int `yaml:"buffer_lines"`
}

const (
	MaxSlots        = 4
	minSlotInterval = 50 * time.Millisecond
)

// factorySlots are used for slots the file does not list.
var factorySlots = [MaxSlots]SlotConfig{
	{Enabled: true, Sensor: "GPS", Sentence: "RMC", Interval: 500 * time.Millisecond},
	{Enabled: false, Sensor: "GPS", Sentence: "VTG", Interval: 500 * time.Millisecond},
	{Enabled: false, Sensor: "SPEED", Sentence: "VHW", Interval: 500 * time.Millisecond},
	{Enabled: false, Sensor: "HEADING", Sentence: "HDT", Interval: 500 * time.Millisecond},
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	if err := DefaultAndValidate(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, unknownFieldsError(err)
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// unknownFieldsError rewrites yaml's strict-mode error into a single line.
func unknownFieldsError(err error) error {
	var te *yaml.TypeError
	if !errors.As(err, &te) {
		return err
	}
	var fields []string
	for _, e := range te.Errors {
		if i := strings.Index(e, "field "); i >= 0 && strings.Contains(e, " not found in type ") {
			fields = append(fields, e[i:])
		}
	}
	if len(fields) == 0 {
		return err
	}
	return fmt.Errorf("config contains unknown fields: %s", strings.Join(fields, "; "))
}

// DefaultAndValidate fills unset fields and rejects inconsistent ones.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// Serial.
	if strings.TrimSpace(cfg.Serial.Device) == "" {
		cfg.Serial.Device = "/dev/serial0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 4800
	}
	if err := serialport.CheckBaud(cfg.Serial.Baud); err != nil {
		return fmt.Errorf("serial.baud must be one of 4800, 9600, 38400, 115200")
	}
	cfg.Serial.Backend = strings.ToLower(strings.TrimSpace(cfg.Serial.Backend))
	switch cfg.Serial.Backend {
	case "":
		cfg.Serial.Backend = serialport.BackendBugst
	case serialport.BackendBugst, serialport.BackendTarm, serialport.BackendTermios:
	default:
		return fmt.Errorf("serial.backend must be one of bugst, tarm, termios")
	}
	if cfg.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial.read_timeout must be >= 0")
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = 10 * time.Millisecond
	}

	// Relay.
	cfg.Relay.UDPDest = strings.TrimSpace(cfg.Relay.UDPDest)
	if cfg.Relay.UDPDest == "" {
		cfg.Relay.UDPDest = "192.168.4.255:10110"
	}
	if cfg.Relay.MQTT.Broker == "" {
		cfg.Relay.MQTT.Broker = "tcp://127.0.0.1:1883"
	}
	if cfg.Relay.MQTT.Topic == "" {
		cfg.Relay.MQTT.Topic = "nmea-link/sentences"
	}
	if cfg.Relay.MQTT.QoS < 0 || cfg.Relay.MQTT.QoS > 2 {
		return fmt.Errorf("relay.mqtt.qos must be 0, 1 or 2")
	}

	// Web.
	if strings.TrimSpace(cfg.Web.Listen) == "" {
		cfg.Web.Listen = ":80"
	}

	// LED.
	if cfg.LED.RedLine == "" {
		cfg.LED.RedLine = "GPIO17"
	}
	if cfg.LED.GreenLine == "" {
		cfg.LED.GreenLine = "GPIO27"
	}
	if cfg.LED.BlueLine == "" {
		cfg.LED.BlueLine = "GPIO22"
	}
	if cfg.LED.Flash < 0 {
		return fmt.Errorf("led.flash must be >= 0")
	}
	if cfg.LED.Flash == 0 {
		cfg.LED.Flash = 50 * time.Millisecond
	}

	// Gateway.
	cfg.Gateway.Role = strings.ToLower(strings.TrimSpace(cfg.Gateway.Role))
	switch cfg.Gateway.Role {
	case "":
		cfg.Gateway.Role = "monitor"
	case "monitor", "generator":
	default:
		return fmt.Errorf("gateway.role must be 'monitor' or 'generator'")
	}
	if cfg.Gateway.PollInterval < 0 {
		return fmt.Errorf("gateway.poll_interval must be >= 0")
	}
	if cfg.Gateway.PollInterval == 0 {
		cfg.Gateway.PollInterval = 5 * time.Millisecond
	}
	if cfg.Gateway.MonitorLines < 0 || cfg.Gateway.GeneratorLines < 0 {
		return fmt.Errorf("gateway.monitor_lines and gateway.generator_lines must be >= 0")
	}
	if cfg.Gateway.MonitorLines == 0 {
		cfg.Gateway.MonitorLines = 50
	}
	if cfg.Gateway.GeneratorLines == 0 {
		cfg.Gateway.GeneratorLines = 200
	}
	if len(cfg.Gateway.Slots) > MaxSlots {
		return fmt.Errorf("gateway.slots must have at most %d entries", MaxSlots)
	}
	slots := make([]SlotConfig, MaxSlots)
	copy(slots, factorySlots[:])
	for i, s := range cfg.Gateway.Slots {
		cat, ok := nmea.ParseCategory(s.Sensor)
		if strings.TrimSpace(s.Sensor) == "" {
			cat, ok = nmea.GPS, true
		}
		if !ok {
			return fmt.Errorf("gateway.slots[%d].sensor %q is not a known category", i, s.Sensor)
		}
		s.Sensor = cat.String()
		s.Sentence = strings.ToUpper(strings.TrimSpace(s.Sentence))
		if cat == nmea.Other {
			s.Sentence = nmea.CustomCode
		}
		if s.Sentence == "" {
			s.Sentence = nmea.Codes(cat)[0]
		}
		if s.Interval < 0 {
			return fmt.Errorf("gateway.slots[%d].interval must be >= 0", i)
		}
		if s.Interval == 0 {
			s.Interval = 500 * time.Millisecond
		}
		if s.Interval < minSlotInterval {
			s.Interval = minSlotInterval
		}
		slots[i] = s
	}
	cfg.Gateway.Slots = slots

	// Log.
	if cfg.Log.BufferLines < 0 {
		return fmt.Errorf("log.buffer_lines must be >= 0")
	}
	if cfg.Log.BufferLines == 0 {
		cfg.Log.BufferLines = 2000
	}

	return nil
}
