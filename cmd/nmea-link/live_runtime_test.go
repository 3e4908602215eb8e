package main

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"nmea-link/internal/config"
	"nmea-link/internal/gateway"
	"nmea-link/internal/indicator"
	"nmea-link/internal/nmea"
	"nmea-link/internal/relay"
	"nmea-link/internal/serialport"
)

func stubOpeners(t *testing.T) {
	t.Helper()
	oldSerial, oldLED, oldMQTT := openSerial, openIndicator, newMQTT
	t.Cleanup(func() {
		openSerial, openIndicator, newMQTT = oldSerial, oldLED, oldMQTT
	})
	openSerial = func(serialport.Config) (serialport.Port, error) {
		return nil, errors.New("no such device")
	}
	openIndicator = func(indicator.Config) (*indicator.Indicator, error) {
		return nil, errors.New("no gpio")
	}
	newMQTT = func(relay.MQTTConfig) (*relay.MQTT, error) {
		return nil, errors.New("broker unreachable")
	}
}

func testConfig(t *testing.T, udpDest string) config.Config {
	t.Helper()
	cfg := config.Config{Relay: config.RelayConfig{UDPDest: udpDest}}
	if err := config.DefaultAndValidate(&cfg); err != nil {
		t.Fatalf("DefaultAndValidate() error: %v", err)
	}
	return cfg
}

func TestNewRuntime_BestEffortCollaborators(t *testing.T) {
	stubOpeners(t)

	cfg := testConfig(t, "127.0.0.1:10110")
	cfg.Relay.MQTT.Enable = true
	cfg.LED.Enable = true

	rt, err := newRuntime(cfg)
	if err != nil {
		t.Fatalf("newRuntime() error: %v", err)
	}
	defer rt.Close()

	if rt.gateway == nil {
		t.Fatalf("expected gateway")
	}
	if rt.mqtt != nil {
		t.Fatalf("expected mqtt to be skipped")
	}
	if !strings.Contains(rt.serial.LastError(), "no such device") {
		t.Fatalf("serial last error=%q", rt.serial.LastError())
	}
	if got := rt.fanout.Stats().Sinks; len(got) != 1 || got[0] != "udp" {
		t.Fatalf("sinks=%v", got)
	}
	if rt.led.Counts()["boot"] != 1 {
		t.Fatalf("expected boot flash, counts=%v", rt.led.Counts())
	}
}

func TestNewRuntime_UDPOff(t *testing.T) {
	stubOpeners(t)
	rt, err := newRuntime(testConfig(t, "off"))
	if err != nil {
		t.Fatalf("newRuntime() error: %v", err)
	}
	defer rt.Close()
	if rt.udp != nil || len(rt.fanout.Stats().Sinks) != 0 {
		t.Fatalf("expected no relay sinks")
	}
}

func TestRuntime_GeneratedSentencesReachUDP(t *testing.T) {
	stubOpeners(t)

	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	defer pc.Close()

	rt, err := newRuntime(testConfig(t, pc.LocalAddr().String()))
	if err != nil {
		t.Fatalf("newRuntime() error: %v", err)
	}
	defer rt.Close()

	rt.gateway.SetRole(gateway.RoleGenerator)
	rt.gateway.SetGeneratorRunning(true)
	rt.gateway.Step(500 * time.Millisecond)

	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if got, want := string(buf[:n]), nmea.TemplateFor(nmea.GPS, "RMC"); got != want {
		t.Fatalf("datagram=%q want %q", got, want)
	}
	// The serial device is missing, but the sentence is still recorded.
	if lines := rt.gateway.GeneratorLines(); len(lines) != 1 {
		t.Fatalf("generator lines=%v", lines)
	}
}

func TestGatewayConfig(t *testing.T) {
	cfg := testConfig(t, "off").Gateway
	cfg.Role = "generator"
	cfg.Slots[2] = config.SlotConfig{Enabled: true, Sensor: "AIS", Sentence: "AIVDO", Interval: time.Second}

	gc, err := gatewayConfig(cfg)
	if err != nil {
		t.Fatalf("gatewayConfig() error: %v", err)
	}
	if gc.Role != gateway.RoleGenerator || gc.MonitorLines != 50 || gc.GeneratorLines != 200 {
		t.Fatalf("config=%+v", gc)
	}
	if s := gc.Slots[2]; !s.Enabled || s.Sensor != nmea.AIS || s.Code != "AIVDO" || s.Interval != time.Second {
		t.Fatalf("slot2=%+v", s)
	}
	if gc.Slots[0].Code != "RMC" || !gc.Slots[0].Enabled {
		t.Fatalf("slot0=%+v", gc.Slots[0])
	}

	cfg.Slots[1].Sensor = "LIDAR"
	if _, err := gatewayConfig(cfg); err == nil {
		t.Fatalf("expected error for unknown sensor")
	}
	cfg.Slots[1].Sensor = "GPS"
	cfg.Role = "bridge"
	if _, err := gatewayConfig(cfg); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
