// Package edge is the thin HTTP boundary: endpoints, CIDR ACL,
// wire-alias normalization, and sync-vs-async return mode.
package edge

import (
	"encoding/json"
	"net/http"

	"github.com/relaynet/pushgateway/internal/apierr"
	"github.com/relaynet/pushgateway/internal/dispatch"
	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/store"
)

// Handler wires the HTTP endpoints to the dispatcher and token store.
type Handler struct {
	Dispatcher   *dispatch.Dispatcher
	Store        store.TokenStore
	AsyncDefault bool
}

func writeOutcome(w http.ResponseWriter, o model.Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(o.Code)
	_ = json.NewEncoder(w).Encode(o)
}

func writeError(w http.ResponseWriter, e *apierr.Error) {
	writeOutcome(w, model.Outcome{Code: e.Status(), Description: e.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Health answers the process liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
