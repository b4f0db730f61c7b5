package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type progressFrame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// ProgressSocketHandler streams solve progress events for one solve ID
// over a WebSocket until the solve completes, fails, or the client
// goes away.
func (s *Server) ProgressSocketHandler(w http.ResponseWriter, r *http.Request, solveID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Drain client frames so pongs and close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := s.Broker.Subscribe(solveID)
	defer s.Broker.Unsubscribe(solveID, ch)

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(progressFrame{Type: evt.Type, Data: evt.Data}); err != nil {
				return
			}
			if evt.Type == "solve.completed" || evt.Type == "solve.failed" {
				return
			}
		}
	}
}
