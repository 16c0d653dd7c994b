package handlers

import "github.com/go-chi/chi/v5"

// Routes mounts the analytics API. feed may be nil when the live feed is disabled.
func Routes(r chi.Router, h *Handler, feed *FeedHandler) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Post("/simulate", h.Simulate)

		if feed != nil {
			r.Get("/feed/metrics", feed.HandleMetrics)
		}
	})

	if feed != nil {
		r.Get("/ws/opportunities", feed.HandleWebSocket)
	}
}
