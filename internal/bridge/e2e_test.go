package bridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tinytelemetry/vboard/internal/bridge"
	"github.com/tinytelemetry/vboard/internal/httpserver"
	"github.com/tinytelemetry/vboard/internal/journal"
	"github.com/tinytelemetry/vboard/internal/simconn"
)

// fakeSimulation is a websocket peer that records CHANGE frames and lets the
// test push pin updates.
type fakeSimulation struct {
	srv      *httptest.Server
	received chan string
	push     chan string

	mu   sync.Mutex
	conn *websocket.Conn
}

func startSimulation(t *testing.T) *fakeSimulation {
	t.Helper()

	sim := &fakeSimulation{
		received: make(chan string, 64),
		push:     make(chan string, 64),
	}
	upgrader := websocket.Upgrader{}
	sim.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		sim.mu.Lock()
		sim.conn = ws
		sim.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				sim.received <- string(data)
			}
		}()
		for {
			select {
			case msg := <-sim.push:
				if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
	t.Cleanup(sim.srv.Close)
	return sim
}

func (s *fakeSimulation) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *fakeSimulation) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-s.received:
			if got != w {
				t.Fatalf("simulation received %q, want %q", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("simulation never received %q", w)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEndToEnd_SimulationRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sim := startSimulation(t)

	trace, err := journal.Open(filepath.Join(t.TempDir(), "trace.jsonl"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer trace.Close()

	br := bridge.New(bridge.Options{Recorder: trace})
	conn := simconn.New(sim.url(), simconn.WebsocketDialer{}, br.HandleEvent)
	br.Attach(conn)
	defer conn.Close()

	if err := br.LoadFile(filepath.Join("..", "board", "testdata", "de10-lite.json")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	api := httptest.NewServer(httpserver.NewServer("", br).Handler())
	defer api.Close()

	// Connect through the API; the simulation gets the switch burst in order.
	resp, err := http.Post(api.URL+"/api/connect", "application/json", nil)
	if err != nil {
		t.Fatalf("POST connect: %v", err)
	}
	resp.Body.Close()
	sim.expect(t, "CHANGE PIN_C10 0", "CHANGE PIN_C11 1")
	waitFor(t, "connected state", func() bool { return br.State() == simconn.Connected })

	// Simulation drives an LED and a seven-segment pin.
	sim.push <- "PIN_A8 = 1"
	sim.push <- "PIN_C14 = 1"
	sim.push <- "[ERROR] unknown command"
	sim.push <- "PIN_C10 = 1"
	waitFor(t, "LED and segment update", func() bool {
		s := br.Snapshot()
		return s.Board.LEDs[0].Status && s.Segments[0][0]
	})
	if br.Snapshot().Board.Switches[0].Status {
		t.Fatal("inbound frame changed a switch")
	}

	// User input through the API reaches the simulation.
	resp, err = http.Post(api.URL+"/api/switches/PIN_C10/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST toggle: %v", err)
	}
	var pin struct {
		ID     string `json:"id"`
		Status bool   `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		t.Fatalf("decode toggle: %v", err)
	}
	resp.Body.Close()
	if !pin.Status {
		t.Fatalf("toggle response = %+v, want status true", pin)
	}
	sim.expect(t, "CHANGE PIN_C10 1")

	// A remote close resets the slot and reconnect works.
	sim.mu.Lock()
	sim.conn.Close()
	sim.mu.Unlock()
	waitFor(t, "disconnect", func() bool { return br.State() == simconn.Disconnected })
	if !br.Connect(context.Background()) {
		t.Fatal("reconnect did not start")
	}
	sim.expect(t, "CHANGE PIN_C10 1", "CHANGE PIN_C11 1")

	origins := map[journal.Origin]int{}
	if err := trace.Replay(func(_ uint64, tr journal.Transition) error {
		origins[tr.Origin]++
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if origins[journal.OriginSimulation] != 2 || origins[journal.OriginUser] != 1 || origins[journal.OriginLoad] == 0 {
		t.Fatalf("trace origins = %v", origins)
	}
}
