package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/me/cinedex/internal/cache"
)

// healthPingTimeout bounds the database check.
const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	GoVersion string      `json:"go_version"`
	Uptime    string      `json:"uptime"`
	Store     string      `json:"store"`
	Cache     cache.Stats `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     "unknown",
		Cache:     s.catalog.CacheStats(),
	}
	status := http.StatusOK
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("health check: store unreachable", "error", err)
			resp.Status = "degraded"
			resp.Store = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Store = "ok"
		}
	}
	respondJSON(w, status, reqID, resp, nil, nil)
}
