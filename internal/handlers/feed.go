package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/client"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/hub"
)

// FeedHandler serves the live opportunity websocket feed
type FeedHandler struct {
	hub      *hub.Hub
	ctx      context.Context
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a feed handler. Client pumps live on ctx, not the request context.
func NewFeedHandler(ctx context.Context, h *hub.Hub, log logrus.FieldLogger, allowedOrigins []string) *FeedHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FeedHandler{
		hub: h,
		ctx: ctx,
		log: log.WithField("component", "feed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket upgrades the connection and registers a subscriber
func (f *FeedHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.WithError(err).Warn("⚠️  WebSocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, f.hub, f.log)

	f.hub.Register(c)

	go c.WritePump(f.ctx)
	go c.ReadPump(f.ctx)
}

// HandleMetrics returns hub metrics
func (f *FeedHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, f.hub.GetMetrics())
}

// originChecker allows requests without an Origin header and those from allowed origins.
// An empty list or "*" allows all.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 || set["*"] {
			return true
		}
		return set[origin]
	}
}
