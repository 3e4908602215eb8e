package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nmea-link/internal/gateway"
	"nmea-link/internal/nmea"
	"nmea-link/internal/serialport"
	"nmea-link/internal/web"
)

type fakePort struct {
	mu   sync.Mutex
	baud int
}

func (p *fakePort) ReadAvailable(dst []byte) ([]byte, uint64, error) { return dst, 1, nil }
func (p *fakePort) WriteLine(string) error                            { return nil }
func (p *fakePort) LastError() string                                 { return "" }

func (p *fakePort) SetBaud(b int) error {
	if err := serialport.CheckBaud(b); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baud = b
	return nil
}

func (p *fakePort) Baud() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baud
}

func newTestClient(t *testing.T) (*Client, *gateway.Gateway) {
	t.Helper()
	gw, err := gateway.New(gateway.DefaultConfig(), &fakePort{baud: 4800}, nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(web.Handler(gw, nil, nil))
	t.Cleanup(ts.Close)
	c, err := New(ts.URL)
	require.NoError(t, err)
	return c, gw
}

func TestNew(t *testing.T) {
	c, err := New("192.168.4.1")
	require.NoError(t, err)
	require.Equal(t, "http://192.168.4.1/getstatus", c.URL("/getstatus", nil))

	c, err = New("http://host:8080/base/")
	require.NoError(t, err)
	require.Equal(t, "http://host:8080/base/getnmea", c.URL("/getnmea", nil))

	_, err = New("  ")
	require.Error(t, err)
	_, err = New("http://")
	require.Error(t, err)
}

func TestModeBaudAndStatus(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	mode, err := c.SetMode(ctx, "generator")
	require.NoError(t, err)
	require.Equal(t, "GENERATOR", mode)

	state, err := c.SetGenerator(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "RUNNING", state)

	require.NoError(t, c.SetBaud(ctx, 38400))
	st, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, DeviceStatus{Mode: "generator", Baud: 38400, GenRunning: true}, st)

	state, err = c.SetMonitor(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "PAUSED", state)
}

func TestSetBaud_Rejected(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.SetBaud(context.Background(), 57600)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.Code)
	require.Equal(t, "unsupported baud", apiErr.Body)
}

func TestSlots(t *testing.T) {
	c, gw := newTestClient(t)
	ctx := context.Background()

	on, err := c.SetSlotEnabled(ctx, 3, true)
	require.NoError(t, err)
	require.True(t, on)

	sensor, err := c.SetSlotSensor(ctx, 3, "weather")
	require.NoError(t, err)
	require.Equal(t, "WEATHER", sensor)

	code, err := c.SetSlotSentence(ctx, 3, "mwv")
	require.NoError(t, err)
	require.Equal(t, "MWV", code)

	tmpl, err := c.SlotTemplate(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, nmea.TemplateFor(nmea.Weather, "MWV"), tmpl)

	d, err := c.SetSlotInterval(ctx, 3, 20*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, gateway.MinInterval, d)

	text, err := c.SetSlotText(ctx, 3, "$IIMWV,1,R*FF")
	require.NoError(t, err)
	require.Equal(t, "$IIMWV,1,R*"+nmea.Checksum("IIMWV,1,R"), text)

	slots, err := c.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, gateway.NumSlots)
	require.Equal(t, Slot{Index: 3, Enabled: true, Sensor: "WEATHER", Sentence: "MWV", Text: text, IntervalMs: 50}, slots[3])

	s, err := gw.Slot(3)
	require.NoError(t, err)
	require.Equal(t, text, s.Text)

	_, err = c.SlotTemplate(ctx, 7)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Bad slot", apiErr.Body)
}

func TestBuffers(t *testing.T) {
	c, gw := newTestClient(t)
	ctx := context.Background()

	lines, err := c.GeneratorLines(ctx)
	require.NoError(t, err)
	require.Empty(t, lines)

	gw.SetRole(gateway.RoleGenerator)
	gw.SetGeneratorRunning(true)
	gw.Step(500 * time.Millisecond)
	gw.Step(time.Second)

	lines, err = c.GeneratorLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.NoError(t, c.ClearGenerator(ctx))
	lines, err = c.GeneratorLines(ctx)
	require.NoError(t, err)
	require.Empty(t, lines)

	require.NoError(t, c.ClearMonitor(ctx))
	lines, err = c.MonitorLines(ctx)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestCatalog(t *testing.T) {
	c, _ := newTestClient(t)
	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat, len(nmea.Categories))
	require.Equal(t, nmea.Codes(nmea.Heading), cat["HEADING"])
	require.Equal(t, []string{nmea.CustomCode}, cat["OTHER"])
}
