// Package client talks to a running gateway over its HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is a non-2xx reply.
type Error struct {
	Path string
	Code int
	Body string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Path, e.Code, strings.TrimSpace(e.Body))
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New accepts "host", "host:port" or a full http URL.
func New(addr string) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("client: empty address")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("client: parse %q: %w", addr, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: no host in %q", addr)
	}
	return &Client{base: u, http: &http.Client{Timeout: 5 * time.Second}}, nil
}

func (c *Client) URL(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

// do sends q in the URL, or as a form body when form is set.
func (c *Client) do(ctx context.Context, method, path string, q, form url.Values) (string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, q), body)
	if err != nil {
		return "", err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Path: path, Code: resp.StatusCode, Body: string(b)}
	}
	return string(b), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (string, error) {
	return c.do(ctx, http.MethodGet, path, q, nil)
}

// DeviceStatus mirrors /getstatus.
type DeviceStatus struct {
	Mode       string `json:"mode"`
	Baud       int    `json:"baud"`
	GenRunning bool   `json:"genRunning"`
	MonRunning bool   `json:"monRunning"`
}

func (c *Client) Status(ctx context.Context) (DeviceStatus, error) {
	var st DeviceStatus
	body, err := c.get(ctx, "/getstatus", nil)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// SetMode returns the role the device reports after the switch.
func (c *Client) SetMode(ctx context.Context, mode string) (string, error) {
	return c.get(ctx, "/setmode", url.Values{"m": {mode}})
}

func (c *Client) SetBaud(ctx context.Context, baud int) error {
	_, err := c.get(ctx, "/setbaud", url.Values{"baud": {strconv.Itoa(baud)}})
	return err
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func (c *Client) SetMonitor(ctx context.Context, on bool) (string, error) {
	return c.get(ctx, "/setmonitor", url.Values{"state": {flag(on)}})
}

func (c *Client) SetGenerator(ctx context.Context, on bool) (string, error) {
	return c.get(ctx, "/togglegen", url.Values{"state": {flag(on)}})
}

func splitLines(body string) []string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

func (c *Client) MonitorLines(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/getnmea", nil)
	return splitLines(body), err
}

func (c *Client) GeneratorLines(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/getgen", nil)
	return splitLines(body), err
}

func (c *Client) ClearMonitor(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/clearnmea", nil, nil)
	return err
}

func (c *Client) ClearGenerator(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/cleargen", nil, nil)
	return err
}

// Slot mirrors one entry of /api/slots.
type Slot struct {
	Index       int    `json:"index"`
	Enabled     bool   `json:"enabled"`
	Sensor      string `json:"sensor"`
	Sentence    string `json:"sentence"`
	Text        string `json:"text"`
	IntervalMs  int64  `json:"interval_ms"`
	LastFiredMs int64  `json:"last_fired_ms"`
}

func (c *Client) Slots(ctx context.Context) ([]Slot, error) {
	body, err := c.get(ctx, "/api/slots", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Slots []Slot `json:"slots"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return out.Slots, nil
}

func slotQuery(i int, kv ...string) url.Values {
	q := url.Values{"i": {strconv.Itoa(i)}}
	for j := 0; j+1 < len(kv); j += 2 {
		q.Set(kv[j], kv[j+1])
	}
	return q
}

func (c *Client) SetSlotEnabled(ctx context.Context, i int, on bool) (bool, error) {
	body, err := c.get(ctx, "/gen_slot_enable", slotQuery(i, "en", flag(on)))
	return body == "1", err
}

func (c *Client) SetSlotSensor(ctx context.Context, i int, sensor string) (string, error) {
	return c.get(ctx, "/gen_slot_sensor", slotQuery(i, "sensor", sensor))
}

func (c *Client) SetSlotSentence(ctx context.Context, i int, code string) (string, error) {
	return c.get(ctx, "/gen_slot_sentence", slotQuery(i, "sentence", code))
}

// SetSlotText posts the text as a form so that '*' and ',' survive untouched.
func (c *Client) SetSlotText(ctx context.Context, i int, text string) (string, error) {
	return c.do(ctx, http.MethodPost, "/gen_slot_text", nil, slotQuery(i, "text", text))
}

func (c *Client) SlotTemplate(ctx context.Context, i int) (string, error) {
	return c.get(ctx, "/gen_slot_template", slotQuery(i))
}

// SlotEditable returns the slot's sentence without checksum, ready to edit.
func (c *Client) SlotEditable(ctx context.Context, i int) (string, error) {
	return c.get(ctx, "/gen_slot_editable", slotQuery(i))
}

// SetSlotInterval returns the interval the device stored, after its floor.
func (c *Client) SetSlotInterval(ctx context.Context, i int, d time.Duration) (time.Duration, error) {
	body, err := c.get(ctx, "/gen_slot_interval", slotQuery(i, "ms", strconv.FormatInt(d.Milliseconds(), 10)))
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(body), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode interval %q: %w", body, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Catalog returns the selectable sentence codes per category.
func (c *Client) Catalog(ctx context.Context) (map[string][]string, error) {
	body, err := c.get(ctx, "/api/catalog", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Categories []struct {
			Sensor    string   `json:"sensor"`
			Sentences []string `json:"sentences"`
		} `json:"categories"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	m := make(map[string][]string, len(out.Categories))
	for _, e := range out.Categories {
		m[e.Sensor] = e.Sentences
	}
	return m, nil
}
