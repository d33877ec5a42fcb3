package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/hotelpulse/hotelpulse/internal/shared"
)

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/api/dashboard", h.handleDashboard)
	r.Delete("/api/dashboard", h.handleClear)
	r.Get("/api/hotels", h.handleHotels)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/api/dashboard/export.csv", h.handleCSV)
		gr.Get("/api/dashboard/export.xlsx", h.handleXLSX)
		if h.pdf != nil {
			gr.Get("/api/dashboard/export.pdf", h.handlePDF)
		}
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := shared.IdentityFromContext(r.Context()); ok {
		return "user:" + id.UserID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
