package web

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"nmea-link/internal/gateway"
	"nmea-link/internal/serialport"
)

// AboutResponse describes the build and the fixed device limits clients need
// to render their controls.
type AboutResponse struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	GoVersion string `json:"go_version"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`

	Bauds         []int    `json:"bauds"`
	Backends      []string `json:"serial_backends"`
	Slots         int      `json:"slots"`
	MinIntervalMs int64    `json:"min_interval_ms"`
}

func about(now time.Time) AboutResponse {
	resp := AboutResponse{
		Service:       "nmea-link",
		NowUTC:        now.Format(time.RFC3339Nano),
		GoVersion:     runtime.Version(),
		Bauds:         append([]int(nil), serialport.SupportedBauds...),
		Backends:      []string{serialport.BackendBugst, serialport.BackendTarm, serialport.BackendTermios},
		Slots:         gateway.NumSlots,
		MinIntervalMs: gateway.MinInterval.Milliseconds(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return resp
	}
	if bi.Main.Version != "(devel)" {
		resp.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			resp.Commit = s.Value
		case "vcs.modified":
			resp.Dirty = s.Value == "true"
		}
	}
	return resp
}

func AboutHandler() http.Handler {
	return noStore(methods(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, about(time.Now().UTC()))
	}, http.MethodGet))
}
