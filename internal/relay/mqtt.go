package relay

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
)

var ErrNotConnected = errors.New("mqtt not connected")

type MQTTConfig struct {
	// Broker is a paho broker URL, e.g. tcp://127.0.0.1:1883.
	Broker   string
	Topic    string
	ClientID string
	QoS      byte

	ConnectTimeout time.Duration
}

// MQTT publishes each sentence to a single topic. Publishing does not wait for
// the broker; the client reconnects in the background.
type MQTT struct {
	client paho.Client
	topic  string
	qos    byte
}

var machineIDFn = machineid.ProtectedID

// DefaultClientID derives a stable per-device client id.
func DefaultClientID() string {
	if id, err := machineIDFn("nmea-link"); err == nil && len(id) >= 12 {
		return "nmea-link-" + id[:12]
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "nmea-link-" + host
	}
	return "nmea-link"
}

func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 2 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.ConnectTimeout)
	client := paho.NewClient(opts)

	// With ConnectRetry the token only completes once connected; do not wait
	// for it beyond the timeout so a missing broker never blocks startup.
	tok := client.Connect()
	if tok.WaitTimeout(cfg.ConnectTimeout) && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
	}
	return &MQTT{client: client, topic: cfg.Topic, qos: cfg.QoS}, nil
}

func (m *MQTT) SendLine(line string) error {
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	m.client.Publish(m.topic, m.qos, false, line)
	return nil
}

func (m *MQTT) Close() {
	if m == nil || m.client == nil {
		return
	}
	m.client.Disconnect(250)
}
