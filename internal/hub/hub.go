package hub

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/client"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

const broadcastBufferSize = 1000

// Hub maintains live-feed subscribers and broadcasts opportunities to them.
// All client set mutation happens on the Run goroutine.
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.Opportunity
	register   chan *client.Client
	unregister chan *client.Client
	done       chan struct{}

	log             logrus.FieldLogger
	metricsInterval time.Duration

	totalConnections int64
	totalMessages    int64
	droppedMessages  int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:         make(map[*client.Client]bool),
		broadcast:       make(chan models.Opportunity, broadcastBufferSize),
		register:        make(chan *client.Client),
		unregister:      make(chan *client.Client),
		done:            make(chan struct{}),
		log:             log.WithField("component", "hub"),
		metricsInterval: 30 * time.Second,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("✓ Hub started")
	defer close(h.done)

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case opp := <-h.broadcast:
			h.broadcastOpportunity(opp)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an opportunity for matching clients, dropping it when the buffer is full
func (h *Hub) Broadcast(opp models.Opportunity) bool {
	select {
	case h.broadcast <- opp:
		return true
	default:
		h.log.WithField("event_id", opp.EventID).Warn("⚠️  Broadcast buffer full, dropping opportunity")
		h.metricsMu.Lock()
		h.droppedMessages++
		h.metricsMu.Unlock()
		return false
	}
}

// Publish broadcasts every opportunity. It never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, opportunities []models.Opportunity) error {
	for _, opp := range opportunities {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.Broadcast(opp)
	}
	return nil
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": total}).Info("client connected")
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": len(h.clients)}).Info("client disconnected")
	}
}

// broadcastOpportunity sends an opportunity to every client whose filter matches
func (h *Hub) broadcastOpportunity(opp models.Opportunity) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeOpportunity,
		Payload:   opp,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.MatchesFilter(opp) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		// Slow client, disconnect it
		h.log.WithField("client_id", c.ID).Warn("⚠️  client buffer full, disconnecting")
		h.unregisterClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages += int64(sent)
		h.metricsMu.Unlock()
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	dropped := h.droppedMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     h.GetClientCount(),
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"dropped_messages":   dropped,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("clients", len(h.clients)).Info("🛑 Shutting down hub")

	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(h.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.log.WithFields(logrus.Fields(h.GetMetrics())).Debug("hub metrics")
		}
	}
}
