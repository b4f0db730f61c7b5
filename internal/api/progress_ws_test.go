package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestProgressSocketStreamsUntilCompleted(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(http.HandlerFunc(s.SolveByIDHandler))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/solves/abc/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	s.Broker.Publish("abc", Event{Type: "solve.progress", Data: map[string]any{"round": float64(1)}})
	s.Broker.Publish("abc", Event{Type: "solve.completed", Data: map[string]any{"cost": float64(10)}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var first progressFrame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	if first.Type != "solve.progress" {
		t.Fatalf("first frame: got %s", first.Type)
	}
	var second progressFrame
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second frame: %v", err)
	}
	if second.Type != "solve.completed" {
		t.Fatalf("second frame: got %s", second.Type)
	}
}
