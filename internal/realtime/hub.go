package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/config"
	"github.com/ifuryst/postpilot/internal/metrics"
)

type outbound struct {
	kind MessageType
	data []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	mu sync.RWMutex

	config  config.RealtimeConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(cfg config.RealtimeConfig, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if m == nil {
		m = metrics.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan outbound, 256),
		config:     cfg,
		metrics:    m,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)
	h.logger.Info("Realtime hub started")

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			h.logger.Info("Realtime hub stopped")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "disconnect")

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.HubConnections.Set(float64(count))
	h.logger.Info("Client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Int("clients", count))
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	count := len(h.clients)
	h.mu.Unlock()

	client.Close()
	if !ok {
		return
	}

	h.metrics.HubConnections.Set(float64(count))
	if reason != "disconnect" {
		h.metrics.HubDroppedClient.WithLabelValues(reason).Inc()
	}
	h.logger.Info("Client disconnected",
		zap.String("client_id", client.ID),
		zap.String("reason", reason),
		zap.Int("clients", count))
}

func (h *Hub) fanOut(msg outbound) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if client.enqueue(msg.data) {
			h.metrics.HubMessages.WithLabelValues("out", string(msg.kind)).Inc()
			continue
		}
		slow = append(slow, client)
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Client send buffer full, dropping client", zap.String("client_id", client.ID))
		h.removeClient(client, "slow_consumer")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for client := range clients {
		client.Close()
	}
	h.metrics.HubConnections.Set(0)
	h.logger.Info("Closed connections during shutdown", zap.Int("count", len(clients)))
}

// Broadcast sends f to every connected client.
func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.String("type", string(f.FrameType())), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- outbound{kind: f.FrameType(), data: data}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops the event loop and closes every client.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown: %w", ctx.Err())
	}
}
