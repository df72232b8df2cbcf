package watch

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/examtrace/internal/logger"
)

func newTestServer(t *testing.T) (*WebServer, *httptest.Server, *Broadcaster) {
	t.Helper()
	b := NewBroadcaster()
	m := NewManager(nil, &recordingQueue{}, b)
	ws := NewWebServer(9090, m, b, nil)
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)
	return ws, srv, b
}

func TestHandleStatus(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if len(status.WatchingPaths) != 0 {
		t.Errorf("expected no watched paths, got %v", status.WatchingPaths)
	}
}

func TestHandleExamsWithoutStore(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/exams")
	if err != nil {
		t.Fatalf("GET /api/exams failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a store, got %d", resp.StatusCode)
	}
}

func TestLogStreamDeliversLogLines(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/logs")
	if err != nil {
		t.Fatalf("GET /api/logs failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", got)
	}

	reader := bufio.NewReader(resp.Body)
	first, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read connection message: %v", err)
	}
	if !strings.Contains(first, "Connected to log stream") {
		t.Fatalf("unexpected first SSE line: %q", first)
	}

	// The connection message is written after Subscribe, so the client is
	// registered by now and must see subsequent log lines.
	found := make(chan string, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.Contains(line, "exam.pdf queued for extraction") {
				found <- line
				return
			}
		}
	}()

	logger.Printf("queueFile: exam.pdf queued for extraction")

	select {
	case line := <-found:
		if !strings.HasPrefix(line, "data: ") || !strings.Contains(line, "[INFO]") {
			t.Errorf("log line not framed as SSE data: %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("log line never reached the SSE stream")
	}
}

func TestWebSocketStream(t *testing.T) {
	_, srv, b := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to subscribe the client
	time.Sleep(100 * time.Millisecond)
	b.Broadcast(Event{Type: "file_queued", Path: "/inbox/exam.pdf", Message: "queued"})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read websocket message: %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.Type != "file_queued" || event.Path != "/inbox/exam.pdf" {
		t.Errorf("unexpected event: %+v", event)
	}
}
