package gateway

import (
	"fmt"
	"strings"
)

// Role selects what the polling loop does with the serial peripheral.
type Role int

const (
	// RoleMonitor reads, classifies and relays bus traffic.
	RoleMonitor Role = iota
	// RoleGenerator synthesizes sentences from the slots and transmits them.
	RoleGenerator
)

func (r Role) String() string {
	switch r {
	case RoleMonitor:
		return "monitor"
	case RoleGenerator:
		return "generator"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monitor":
		return RoleMonitor, true
	case "generator":
		return RoleGenerator, true
	default:
		return RoleMonitor, false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, ok := ParseRole(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", string(b))
	}
	*r = v
	return nil
}

// RunState is the process-wide role and the two pause flags.
type RunState struct {
	Role             Role `json:"mode"`
	MonitorRunning   bool `json:"monitor_running"`
	GeneratorRunning bool `json:"generator_running"`
}
