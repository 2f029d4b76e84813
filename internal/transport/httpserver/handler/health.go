package handler

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.log.InternalError("health: store ping failed", err)
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "store unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
