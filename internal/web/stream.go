package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

var streamPoll = 100 * time.Millisecond

// streamHandler pushes the whole buffer as one text message on connect and
// again every time its version changes.
func streamHandler(version func() uint64, lines func() []string) http.Handler {
	return websocket.Server{
		// Any origin; the device serves its own AP clients.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()

			ctx, cancel := context.WithCancel(ws.Request().Context())
			defer cancel()
			go func() {
				// Inbound messages are ignored; a read error means the peer left.
				var discard string
				for websocket.Message.Receive(ws, &discard) == nil {
				}
				cancel()
			}()

			t := time.NewTicker(streamPoll)
			defer t.Stop()

			sent := false
			var last uint64
			for {
				if v := version(); !sent || v != last {
					last = v
					sent = true
					if err := websocket.Message.Send(ws, joinLines(lines())); err != nil {
						return
					}
				}
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
			}
		},
	}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
