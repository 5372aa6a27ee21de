package handler

import (
	"context"
	"net/http"
	"time"

	artifactcache "codesight/internal/cache/artifact"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := map[string]any{
		"status":   "ok",
		"provider": h.Model.Name(),
		"model_ok": h.Model.HealthCheck(ctx),
	}
	if m, ok := h.Artifacts.(interface{ Metrics() artifactcache.MetricsSnapshot }); ok {
		resp["artifact_cache"] = m.Metrics()
	}
	writeJSON(w, http.StatusOK, resp)
}
