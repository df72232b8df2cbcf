// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watch

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/examtrace/internal/logger"
	"github.com/examtrace/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// WebServer exposes the watcher status over HTTP: a JSON API, a WebSocket
// stream of processing events and an SSE log stream for the dashboard.
type WebServer struct {
	port        int
	manager     *Manager
	broadcaster *Broadcaster
	store       *store.Store
}

// NewWebServer creates a new status web server. store may be nil.
func NewWebServer(port int, manager *Manager, broadcaster *Broadcaster, st *store.Store) *WebServer {
	return &WebServer{port: port, manager: manager, broadcaster: broadcaster, store: st}
}

// Address returns the server address
func (s *WebServer) Address() string {
	return fmt.Sprintf(":%d", s.port)
}

// Handler returns the HTTP handler
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/exams", s.handleExams)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/logs", s.handleLogStream)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// handleStatus returns current watcher status
func (s *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.manager.Status())
}

// handleExams returns recently processed exams
func (s *WebServer) handleExams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "No store configured", http.StatusServiceUnavailable)
		return
	}

	exams, err := s.store.ListRecentExams(50)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list exams: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"exams": exams})
}

// handleEvents returns recent processing events
func (s *WebServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "No store configured", http.StatusServiceUnavailable)
		return
	}

	events, err := s.store.GetRecentEvents(100)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list events: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"events": events})
}

// handleLogStream streams log lines via Server-Sent Events (SSE)
func (s *WebServer) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	appLogger := logger.GetDefault()
	clientChan := appLogger.Subscribe()
	if clientChan == nil {
		http.Error(w, "Log stream unavailable - logger is closed", http.StatusInternalServerError)
		return
	}
	defer appLogger.Unsubscribe(clientChan)

	fmt.Fprintf(w, "data: Connected to log stream\n\n")
	flusher.Flush()

	for {
		select {
		case logLine, ok := <-clientChan:
			if !ok {
				fmt.Fprintf(w, "data: Log stream closed\n\n")
				flusher.Flush()
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", logLine); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// handleWebSocket streams live processing events to a dashboard client
func (s *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("handleWebSocket: failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	clientChan := make(chan Event, 10)
	s.broadcaster.Subscribe(clientChan)
	defer s.broadcaster.Unsubscribe(clientChan)

	log.Printf("handleWebSocket: client connected: %s", r.RemoteAddr)

	// Reader goroutine: drains client messages and detects disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			log.Printf("handleWebSocket: client disconnected: %s", r.RemoteAddr)
			return
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		case event := <-clientChan:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("handleWebSocket: write failed for %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}
