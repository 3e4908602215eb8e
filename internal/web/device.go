package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nmea-link/internal/gateway"
	"nmea-link/internal/nmea"
)

// Gateway is the control surface the HTTP handlers drive.
type Gateway interface {
	RunState() gateway.RunState
	SetRole(r gateway.Role)
	SetMonitorRunning(on bool)
	SetGeneratorRunning(on bool)
	SetBaud(baud int) error
	Baud() int

	Slot(i int) (gateway.Slot, error)
	Slots() []gateway.Slot
	SetSlotEnabled(i int, on bool) (gateway.Slot, error)
	SetSlotSensor(i int, c nmea.Category) (gateway.Slot, error)
	SetSlotCode(i int, code string) (gateway.Slot, error)
	SetSlotText(i int, text string) (gateway.Slot, error)
	SetSlotInterval(i int, d time.Duration) (gateway.Slot, error)
	SlotTemplate(i int) (string, error)
	SlotEditable(i int) (string, error)

	MonitorLines() []string
	GeneratorLines() []string
	MonitorVersion() uint64
	GeneratorVersion() uint64
	ClearMonitor()
	ClearGenerator()

	Status() gateway.Status
}

// registerDevice installs the plain-text endpoints used by the browser UI.
// Every response is uncached.
func registerDevice(mux *http.ServeMux, gw Gateway) {
	get := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, noStore(methods(fn, http.MethodGet)))
	}
	getPost := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, noStore(methods(fn, http.MethodGet, http.MethodPost)))
	}

	get("/getnmea", func(w http.ResponseWriter, r *http.Request) {
		writeLines(w, gw.MonitorLines())
	})
	get("/getgen", func(w http.ResponseWriter, r *http.Request) {
		writeLines(w, gw.GeneratorLines())
	})
	getPost("/clearnmea", func(w http.ResponseWriter, r *http.Request) {
		gw.ClearMonitor()
		writeText(w, http.StatusOK, "OK")
	})
	getPost("/cleargen", func(w http.ResponseWriter, r *http.Request) {
		gw.ClearGenerator()
		writeText(w, http.StatusOK, "OK")
	})

	get("/setbaud", func(w http.ResponseWriter, r *http.Request) {
		s := strings.TrimSpace(r.FormValue("baud"))
		if s == "" {
			writeText(w, http.StatusBadRequest, "Error")
			return
		}
		b, err := strconv.Atoi(s)
		if err != nil {
			writeText(w, http.StatusBadRequest, "unsupported baud")
			return
		}
		if err := gw.SetBaud(b); err != nil {
			if errors.Is(err, gateway.ErrUnsupportedBaud) {
				writeText(w, http.StatusBadRequest, "unsupported baud")
				return
			}
			writeText(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeText(w, http.StatusOK, "OK")
	})

	get("/setmode", func(w http.ResponseWriter, r *http.Request) {
		role := gateway.RoleMonitor
		if strings.EqualFold(strings.TrimSpace(r.FormValue("m")), "generator") {
			role = gateway.RoleGenerator
		}
		gw.SetRole(role)
		writeText(w, http.StatusOK, strings.ToUpper(role.String()))
	})
	get("/setmonitor", func(w http.ResponseWriter, r *http.Request) {
		if r.Form.Has("state") {
			gw.SetMonitorRunning(r.FormValue("state") == "1")
		}
		if gw.RunState().MonitorRunning {
			writeText(w, http.StatusOK, "RUNNING")
			return
		}
		writeText(w, http.StatusOK, "PAUSED")
	})
	get("/togglegen", func(w http.ResponseWriter, r *http.Request) {
		if r.Form.Has("state") {
			gw.SetGeneratorRunning(r.FormValue("state") == "1")
		}
		if gw.RunState().GeneratorRunning {
			writeText(w, http.StatusOK, "RUNNING")
			return
		}
		writeText(w, http.StatusOK, "STOPPED")
	})
	get("/getstatus", func(w http.ResponseWriter, r *http.Request) {
		st := gw.RunState()
		writeJSON(w, struct {
			Mode       string `json:"mode"`
			Baud       int    `json:"baud"`
			GenRunning bool   `json:"genRunning"`
			MonRunning bool   `json:"monRunning"`
		}{
			Mode:       st.Role.String(),
			Baud:       gw.Baud(),
			GenRunning: st.GeneratorRunning,
			MonRunning: st.MonitorRunning,
		})
	})

	get("/gen_slot_enable", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		s, err := gw.Slot(i)
		if err == nil && r.Form.Has("en") {
			s, err = gw.SetSlotEnabled(i, strings.TrimSpace(r.FormValue("en")) == "1")
		}
		if s.Enabled {
			return "1", err
		}
		return "0", err
	}))
	get("/gen_slot_sensor", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		if !r.Form.Has("sensor") {
			s, err := gw.Slot(i)
			return s.Sensor.String(), err
		}
		c, ok := nmea.ParseCategory(r.FormValue("sensor"))
		if !ok {
			return "", errBadValue
		}
		s, err := gw.SetSlotSensor(i, c)
		return s.Sensor.String(), err
	}))
	get("/gen_slot_sentence", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		if !r.Form.Has("sentence") {
			s, err := gw.Slot(i)
			return s.Code, err
		}
		s, err := gw.SetSlotCode(i, r.FormValue("sentence"))
		return s.Code, err
	}))
	getPost("/gen_slot_text", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		if !r.Form.Has("text") {
			s, err := gw.Slot(i)
			return s.Text, err
		}
		s, err := gw.SetSlotText(i, r.FormValue("text"))
		return s.Text, err
	}))
	get("/gen_slot_template", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		return gw.SlotTemplate(i)
	}))
	get("/gen_slot_editable", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		return gw.SlotEditable(i)
	}))
	get("/gen_slot_interval", slotHandler(gw, func(i int, r *http.Request) (string, error) {
		if !r.Form.Has("ms") {
			s, err := gw.Slot(i)
			return strconv.FormatInt(s.IntervalMs, 10), err
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("ms")), 10, 64)
		if err != nil {
			return "", errBadValue
		}
		s, err := gw.SetSlotInterval(i, gateway.IntervalFromMillis(ms))
		return strconv.FormatInt(s.IntervalMs, 10), err
	}))
}

var errBadValue = errors.New("bad value")

// slotHandler parses ?i= and maps gateway errors onto the device's replies.
func slotHandler(gw Gateway, fn func(i int, r *http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.Atoi(strings.TrimSpace(r.FormValue("i")))
		if err != nil || i < 0 || i >= gateway.NumSlots {
			writeText(w, http.StatusBadRequest, "Bad slot")
			return
		}
		out, err := fn(i, r)
		switch {
		case errors.Is(err, gateway.ErrBadSlot):
			writeText(w, http.StatusBadRequest, "Bad slot")
		case errors.Is(err, errBadValue):
			writeText(w, http.StatusBadRequest, "Bad value")
		case err != nil:
			writeText(w, http.StatusInternalServerError, err.Error())
		default:
			writeText(w, http.StatusOK, out)
		}
	}
}

// methods rejects other verbs and parses the query and form before fn runs.
func methods(fn http.HandlerFunc, allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok := false
		for _, m := range allowed {
			if r.Method == m {
				ok = true
				break
			}
		}
		if !ok {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		fn(w, r)
	}
}

func noStore(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		fn(w, r)
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func writeLines(w http.ResponseWriter, lines []string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, l := range lines {
		_, _ = w.Write([]byte(l))
		_, _ = w.Write([]byte("\n"))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}
