package main

import (
	"fmt"
	"log"
	"strings"

	"nmea-link/internal/config"
	"nmea-link/internal/gateway"
	"nmea-link/internal/indicator"
	"nmea-link/internal/nmea"
	"nmea-link/internal/relay"
	"nmea-link/internal/serialport"
	"nmea-link/internal/udp"
	"nmea-link/internal/web"
)

// liveRuntime owns every long-lived collaborator of the gateway.
type liveRuntime struct {
	cfg     config.Config
	serial  *serialport.Peripheral
	fanout  *relay.Fanout
	udp     *udp.Broadcaster
	mqtt    *relay.MQTT
	led     *indicator.Indicator
	gateway *gateway.Gateway
	status  *web.Status
}

// Overridable for tests.
var openSerial serialport.OpenFunc = serialport.Open

var (
	openIndicator = indicator.Open
	newMQTT       = relay.NewMQTT
)

// newRuntime wires the gateway. Serial, MQTT and LED failures are logged and
// the gateway keeps running without them; only an invalid gateway
// configuration is fatal.
func newRuntime(cfg config.Config) (*liveRuntime, error) {
	r := &liveRuntime{cfg: cfg, fanout: relay.NewFanout(), status: web.NewStatus()}

	r.serial = serialport.NewPeripheral(serialport.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		Backend:     cfg.Serial.Backend,
		ReadTimeout: cfg.Serial.ReadTimeout,
	}, openSerial)
	if err := r.serial.Start(); err != nil {
		log.Printf("serial init failed (continuing): %v", err)
	} else {
		log.Printf("serial enabled device=%s baud=%d backend=%s", r.serial.Device(), r.serial.Baud(), cfg.Serial.Backend)
	}

	if !strings.EqualFold(cfg.Relay.UDPDest, "off") {
		b, err := udp.NewBroadcaster(cfg.Relay.UDPDest)
		if err != nil {
			log.Printf("udp relay init failed (continuing): %v", err)
		} else {
			r.udp = b
			r.fanout.Add("udp", b)
			log.Printf("udp relay dest=%s", b.Dest())
		}
	}

	if cfg.Relay.MQTT.Enable {
		m, err := newMQTT(relay.MQTTConfig{
			Broker:   cfg.Relay.MQTT.Broker,
			Topic:    cfg.Relay.MQTT.Topic,
			ClientID: cfg.Relay.MQTT.ClientID,
			QoS:      byte(cfg.Relay.MQTT.QoS),
		})
		if err != nil {
			log.Printf("mqtt relay init failed (continuing): %v", err)
		} else {
			r.mqtt = m
			r.fanout.Add("mqtt", m)
			log.Printf("mqtt relay broker=%s topic=%s", cfg.Relay.MQTT.Broker, cfg.Relay.MQTT.Topic)
		}
	}

	r.led = indicator.Nop()
	if cfg.LED.Enable {
		led, err := openIndicator(indicator.Config{
			Chip:      cfg.LED.Chip,
			RedLine:   cfg.LED.RedLine,
			GreenLine: cfg.LED.GreenLine,
			BlueLine:  cfg.LED.BlueLine,
			Flash:     cfg.LED.Flash,
		})
		if err != nil {
			log.Printf("led init failed (continuing): %v", err)
		} else {
			r.led = led
			log.Printf("led enabled red=%s green=%s blue=%s", cfg.LED.RedLine, cfg.LED.GreenLine, cfg.LED.BlueLine)
		}
	}
	r.led.Flash(indicator.EventBoot, 0)

	gcfg, err := gatewayConfig(cfg.Gateway)
	if err != nil {
		r.Close()
		return nil, err
	}
	gw, err := gateway.New(gcfg, r.serial, r.fanout, r.led)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.gateway = gw

	r.status.SetStatic(map[string]any{
		"serial_device":  r.serial.Device(),
		"serial_backend": cfg.Serial.Backend,
		"udp_dest":       cfg.Relay.UDPDest,
		"mqtt_enabled":   r.mqtt != nil,
		"led_enabled":    cfg.LED.Enable,
		"poll_interval":  cfg.Gateway.PollInterval.String(),
	})
	r.status.SetRelay(r.fanout.Stats)
	r.status.SetIndicator(r.led.Counts)
	return r, nil
}

// gatewayConfig converts the validated YAML section.
func gatewayConfig(c config.GatewayConfig) (gateway.Config, error) {
	role, ok := gateway.ParseRole(c.Role)
	if !ok {
		return gateway.Config{}, fmt.Errorf("gateway.role %q is not valid", c.Role)
	}
	out := gateway.Config{
		Role:           role,
		PollInterval:   c.PollInterval,
		MonitorLines:   c.MonitorLines,
		GeneratorLines: c.GeneratorLines,
		Slots:          gateway.DefaultSlots(),
	}
	if len(c.Slots) > gateway.NumSlots {
		return gateway.Config{}, fmt.Errorf("gateway.slots must have at most %d entries", gateway.NumSlots)
	}
	for i, s := range c.Slots {
		cat, ok := nmea.ParseCategory(s.Sensor)
		if !ok {
			return gateway.Config{}, fmt.Errorf("gateway.slots[%d].sensor %q is not a known category", i, s.Sensor)
		}
		out.Slots[i] = gateway.SlotConfig{
			Enabled:  s.Enabled,
			Sensor:   cat,
			Code:     s.Sentence,
			Text:     s.Text,
			Interval: s.Interval,
		}
	}
	return out, nil
}

func (r *liveRuntime) Close() {
	if r == nil {
		return
	}
	if r.mqtt != nil {
		r.mqtt.Close()
	}
	if r.udp != nil {
		_ = r.udp.Close()
	}
	if r.led != nil {
		_ = r.led.Close()
	}
	if r.serial != nil {
		_ = r.serial.Close()
	}
}
