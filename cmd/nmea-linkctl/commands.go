package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"nmea-link/internal/client"
	"nmea-link/internal/gateway"
)

// ctl runs one command against the device and returns what to print.
type ctl struct {
	cli        *client.Client
	outputJSON bool
	timeout    time.Duration
}

type command struct {
	name    string
	aliases []string
	help    string
	run     func(x *ctl, ctx context.Context, args []string) (string, error)
}

var commands = []command{
	{name: "status", aliases: []string{"st"}, help: "", run: (*ctl).status},
	{name: "mode", help: "monitor|generator", run: (*ctl).mode},
	{name: "baud", help: "4800|9600|38400|115200", run: (*ctl).baud},
	{name: "monitor", aliases: []string{"mon"}, help: "on|off", run: (*ctl).monitor},
	{name: "gen", help: "on|off", run: (*ctl).gen},
	{name: "show", help: "monitor|gen", run: (*ctl).show},
	{name: "clear", help: "monitor|gen", run: (*ctl).clear},
	{name: "slots", help: "", run: (*ctl).slots},
	{name: "slot", help: "N enable|disable|sensor CAT|sentence CODE|text TEXT|template|edit|interval MS", run: (*ctl).slot},
	{name: "catalog", help: "", run: (*ctl).catalog},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func (x *ctl) exec(args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("command expected")
	}
	c, ok := findCommand(args[0])
	if !ok {
		return "", fmt.Errorf("unknown command %q", args[0])
	}
	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()
	return c.run(x, ctx, args[1:])
}

func (x *ctl) encode(v any, text string) (string, error) {
	if !x.outputJSON {
		return text, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func onOff(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("on|off expected")
	}
	switch strings.ToLower(args[0]) {
	case "on", "1", "start", "run":
		return true, nil
	case "off", "0", "stop", "pause":
		return false, nil
	}
	return false, fmt.Errorf("on|off expected, got %q", args[0])
}

func buffer(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("monitor|gen expected")
	}
	switch strings.ToLower(args[0]) {
	case "monitor", "mon", "nmea":
		return "monitor", nil
	case "gen", "generator":
		return "gen", nil
	}
	return "", fmt.Errorf("monitor|gen expected, got %q", args[0])
}

func (x *ctl) status(ctx context.Context, _ []string) (string, error) {
	st, err := x.cli.Status(ctx)
	if err != nil {
		return "", err
	}
	return x.encode(st, fmt.Sprintf("mode=%s baud=%d monitor=%t generator=%t", st.Mode, st.Baud, st.MonRunning, st.GenRunning))
}

func (x *ctl) mode(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("monitor|generator expected")
	}
	m := strings.ToLower(args[0])
	if m != "monitor" && m != "generator" {
		return "", fmt.Errorf("monitor|generator expected, got %q", args[0])
	}
	return x.cli.SetMode(ctx, m)
}

func (x *ctl) baud(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("baud rate expected")
	}
	b, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("baud rate expected, got %q", args[0])
	}
	if err := x.cli.SetBaud(ctx, b); err != nil {
		return "", err
	}
	return "OK", nil
}

func (x *ctl) monitor(ctx context.Context, args []string) (string, error) {
	on, err := onOff(args)
	if err != nil {
		return "", err
	}
	return x.cli.SetMonitor(ctx, on)
}

func (x *ctl) gen(ctx context.Context, args []string) (string, error) {
	on, err := onOff(args)
	if err != nil {
		return "", err
	}
	return x.cli.SetGenerator(ctx, on)
}

func (x *ctl) show(ctx context.Context, args []string) (string, error) {
	which, err := buffer(args)
	if err != nil {
		return "", err
	}
	var lines []string
	if which == "monitor" {
		lines, err = x.cli.MonitorLines(ctx)
	} else {
		lines, err = x.cli.GeneratorLines(ctx)
	}
	if err != nil {
		return "", err
	}
	if lines == nil {
		lines = []string{}
	}
	return x.encode(lines, strings.Join(lines, "\n"))
}

func (x *ctl) clear(ctx context.Context, args []string) (string, error) {
	which, err := buffer(args)
	if err != nil {
		return "", err
	}
	if which == "monitor" {
		err = x.cli.ClearMonitor(ctx)
	} else {
		err = x.cli.ClearGenerator(ctx)
	}
	if err != nil {
		return "", err
	}
	return "OK", nil
}

func (x *ctl) slots(ctx context.Context, _ []string) (string, error) {
	slots, err := x.cli.Slots(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range slots {
		state := "off"
		if s.Enabled {
			state = "on"
		}
		fmt.Fprintf(&b, "%d %-3s %-10s %-6s %5dms %s\n", s.Index, state, s.Sensor, s.Sentence, s.IntervalMs, s.Text)
	}
	return x.encode(slots, strings.TrimRight(b.String(), "\n"))
}

func (x *ctl) slot(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: slot N enable|disable|sensor CAT|sentence CODE|text TEXT|template|edit|interval MS")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("slot number expected, got %q", args[0])
	}
	op, rest := strings.ToLower(args[1]), args[2:]
	switch op {
	case "enable", "disable":
		on, err := x.cli.SetSlotEnabled(ctx, i, op == "enable")
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(on), nil
	case "sensor":
		if len(rest) != 1 {
			return "", fmt.Errorf("category expected")
		}
		return x.cli.SetSlotSensor(ctx, i, rest[0])
	case "sentence":
		if len(rest) != 1 {
			return "", fmt.Errorf("sentence code expected")
		}
		return x.cli.SetSlotSentence(ctx, i, rest[0])
	case "text":
		// Empty text clears the override.
		return x.cli.SetSlotText(ctx, i, strings.Join(rest, " "))
	case "template":
		return x.cli.SlotTemplate(ctx, i)
	case "edit":
		return x.cli.SlotEditable(ctx, i)
	case "interval":
		if len(rest) != 1 {
			return "", fmt.Errorf("interval in ms expected")
		}
		ms, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("interval in ms expected, got %q", rest[0])
		}
		d, err := x.cli.SetSlotInterval(ctx, i, gateway.IntervalFromMillis(ms))
		if err != nil {
			return "", err
		}
		return d.String(), nil
	}
	return "", fmt.Errorf("unknown slot operation %q", args[1])
}

func (x *ctl) catalog(ctx context.Context, _ []string) (string, error) {
	cat, err := x.cli.Catalog(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(cat))
	for k := range cat {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%-10s %s\n", n, strings.Join(cat[n], " "))
	}
	return x.encode(cat, strings.TrimRight(b.String(), "\n"))
}
