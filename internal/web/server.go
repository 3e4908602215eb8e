package web

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"nmea-link/internal/gateway"
	"nmea-link/internal/nmea"
)

// Handler serves the device endpoints, the JSON API and the live streams.
func Handler(gw Gateway, status *Status, logs *LogBuffer) http.Handler {
	if status == nil {
		status = NewStatus()
	}
	mux := http.NewServeMux()
	api := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, noStore(methods(fn, http.MethodGet)))
	}

	registerDevice(mux, gw)

	api("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status.Snapshot(time.Now().UTC(), gw.Status()))
	})
	api("/api/slots", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			Slots []gateway.Slot `json:"slots"`
		}{Slots: gw.Slots()})
	})
	// Selectable sentence codes per category, in display order.
	api("/api/catalog", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			Sensor string   `json:"sensor"`
			Talker string   `json:"talker,omitempty"`
			Codes  []string `json:"sentences"`
		}
		out := make([]entry, 0, len(nmea.Categories))
		for _, c := range nmea.Categories {
			out = append(out, entry{Sensor: c.String(), Talker: nmea.TalkerFor(c), Codes: nmea.Codes(c)})
		}
		writeJSON(w, struct {
			Categories []entry `json:"categories"`
		}{Categories: out})
	})
	mux.Handle("/api/about", AboutHandler())
	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}

	mux.Handle("/ws/monitor", streamHandler(gw.MonitorVersion, gw.MonitorLines))
	mux.Handle("/ws/generator", streamHandler(gw.GeneratorVersion, gw.GeneratorLines))

	api("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeIndex(w, gw)
	})

	return mux
}

// writeIndex renders a bare status page for browsers without the UI bundle.
func writeIndex(w http.ResponseWriter, gw Gateway) {
	st := gw.RunState()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>NMEA Link</title></head><body>")
	_, _ = fmt.Fprintf(w, "<h1>NMEA Link</h1><p>mode=%s baud=%d monitor=%t generator=%t</p>",
		st.Role, gw.Baud(), st.MonitorRunning, st.GeneratorRunning)
	_, _ = fmt.Fprintf(w, "<p><a href=\"/getnmea\">/getnmea</a> <a href=\"/getgen\">/getgen</a> <a href=\"/api/status\">/api/status</a></p><pre>")
	lines := gw.MonitorLines()
	if st.Role == gateway.RoleGenerator {
		lines = gw.GeneratorLines()
	}
	for _, l := range lines {
		_, _ = fmt.Fprintf(w, "%s\n", html.EscapeString(l))
	}
	_, _ = fmt.Fprintf(w, "</pre></body></html>")
}

func Serve(ctx context.Context, listenAddr string, gw Gateway, status *Status, logs *LogBuffer) error {
	if status == nil {
		status = NewStatus()
	}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(gw, status, logs),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
