// Package websocket streams preparation progress to connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"energyforecast/internal/infrastructure"
	"energyforecast/internal/services"
)

// Message types
const (
	TypeConnection = "connection"
	TypeProgress   = "prepare:progress"
)

// broadcastBuffer bounds queued messages so reporting never blocks a run
const broadcastBuffer = 256

// Message is the envelope of every message sent to clients
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu       sync.RWMutex
	running  bool
	quit     chan struct{}
	upgrader websocket.Upgrader

	metrics *infrastructure.PrepareMetrics
	logger  *slog.Logger
}

// NewHub creates a hub. metrics may be nil.
func NewHub(metrics *infrastructure.PrepareMetrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "websocket.hub"),
	}
}

// Start runs the hub loop in the background. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			n := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.addClients(context.Background(), -int64(n))
			h.logger.Info("Hub shutting down", slog.Int("closed_clients", n))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.ctx()
			h.addClients(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendTo(client, Message{
				Type:      TypeConnection,
				Data:      map[string]string{"status": "connected", "client_id": client.id},
				Timestamp: time.Now().UTC(),
				TraceID:   client.traceID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.ctx()
				h.addClients(ctx, -1)
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			sent, dropped := 0, 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					dropped++
					close(client.send)
					delete(h.clients, client)
					h.logger.WarnContext(client.ctx(), "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()

			if h.metrics != nil {
				ctx := context.Background()
				h.metrics.ProgressEventsSent.Add(ctx, int64(sent))
				if dropped > 0 {
					h.metrics.ProgressEventsDropped.Add(ctx, int64(dropped))
					h.metrics.WebSocketClients.Add(ctx, -int64(dropped))
				}
			}
		}
	}
}

// Broadcast queues a message for every client. It drops the message when the
// queue is full rather than waiting.
func (h *Hub) Broadcast(ctx context.Context, msgType string, data any) {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.WarnContext(ctx, "Broadcast queue full, dropping message",
			slog.String("message_type", msgType))
		if h.metrics != nil {
			h.metrics.ProgressEventsDropped.Add(ctx, 1)
		}
	}
}

// ReportProgress publishes a preparation progress event
func (h *Hub) ReportProgress(ctx context.Context, event services.ProgressEvent) {
	h.Broadcast(ctx, TypeProgress, event)
}

// ServeHTTP upgrades the request and registers the connection as a client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an error response
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h, conn, infrastructure.GetTraceID(r.Context()), h.logger)

	select {
	case h.register <- client:
	case <-h.quit:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) sendTo(client *Client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Failed to send message, client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) addClients(ctx context.Context, n int64) {
	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, n)
	}
}
