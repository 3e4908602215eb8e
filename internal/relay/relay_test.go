package relay

import (
	"errors"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	lines []string
	err   error
}

func (s *recordingSink) SendLine(line string) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func TestFanout_SendsToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	f := NewFanout()
	f.Add("a", a)
	f.Add("b", b)
	f.Add("nil", nil)

	f.Send("$GPRMC")
	f.Send("")

	require.Equal(t, []string{"$GPRMC"}, a.lines)
	require.Equal(t, []string{"$GPRMC"}, b.lines)
	st := f.Stats()
	require.Equal(t, []string{"a", "b"}, st.Sinks)
	require.Equal(t, uint64(2), st.Sent)
	require.Zero(t, st.Failed)
	require.Empty(t, st.LastError)
}

func TestFanout_FailuresAreCountedNotReturned(t *testing.T) {
	bad := &recordingSink{err: errors.New("network unreachable")}
	good := &recordingSink{}
	f := NewFanout()
	f.Add("udp", bad)
	f.Add("mqtt", good)

	f.Send("!AIVDM")

	require.Equal(t, []string{"!AIVDM"}, good.lines)
	st := f.Stats()
	require.Equal(t, uint64(1), st.Failed)
	require.Equal(t, uint64(1), st.Sent)
	require.Equal(t, "udp: network unreachable", st.LastError)
	require.NotEmpty(t, st.LastErrorUTC)
}

func TestFanout_NilSafe(t *testing.T) {
	var f *Fanout
	f.Send("x")
	f.Add("x", &recordingSink{})
	require.Equal(t, Stats{}, f.Stats())
}

func TestDefaultClientID(t *testing.T) {
	old := machineIDFn
	t.Cleanup(func() { machineIDFn = old })

	machineIDFn = func(string) (string, error) { return "0123456789abcdef0123", nil }
	require.Equal(t, "nmea-link-0123456789ab", DefaultClientID())

	machineIDFn = func(string) (string, error) { return "", errors.New("no machine id") }
	require.Contains(t, DefaultClientID(), "nmea-link")
}

func TestNewMQTT_Validation(t *testing.T) {
	_, err := NewMQTT(MQTTConfig{Topic: "t"})
	require.Error(t, err)
	_, err = NewMQTT(MQTTConfig{Broker: "tcp://127.0.0.1:1"})
	require.Error(t, err)
	_, err = NewMQTT(MQTTConfig{Broker: "tcp://127.0.0.1:1", Topic: "t", QoS: 3})
	require.Error(t, err)
}

type fakeToken struct{ paho.Token }

type fakeClient struct {
	paho.Client
	open      bool
	published []string
	topic     string
	qos       byte
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.topic = topic
	c.qos = qos
	c.published = append(c.published, payload.(string))
	return fakeToken{}
}

func TestMQTT_SendLine(t *testing.T) {
	fc := &fakeClient{}
	m := &MQTT{client: fc, topic: "boat/nmea", qos: 1}

	require.ErrorIs(t, m.SendLine("$GPRMC"), ErrNotConnected)
	require.Empty(t, fc.published)

	fc.open = true
	require.NoError(t, m.SendLine("$GPRMC"))
	require.Equal(t, []string{"$GPRMC"}, fc.published)
	require.Equal(t, "boat/nmea", fc.topic)
	require.Equal(t, byte(1), fc.qos)
}
