package edge

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relaynet/pushgateway/internal/apierr"
	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/normalize"
)

// AddToken handles POST /v2/tokens/{account}: registers or replaces a
// device's push token for the account.
func (h *Handler) AddToken(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var body model.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apierr.Validation("body"))
		return
	}

	platform, ok := normalize.Platform(body.Platform)
	if !ok {
		writeError(w, apierr.Validation("platform"))
		return
	}
	if body.AppID == "" || body.Token == "" || body.DeviceID == "" {
		writeError(w, apierr.Validation("app-id/token/device-id"))
		return
	}

	record := model.DeviceRecord{
		DeviceID:  body.DeviceID,
		AppID:     body.AppID,
		Platform:  platform,
		Token:     body.Token,
		Silent:    body.Silent,
		UserAgent: body.UserAgent,
	}

	if err := h.Store.Add(r.Context(), account, record); err != nil {
		writeError(w, apierr.Store(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// RemoveToken handles DELETE /v2/tokens/{account}: removes one device,
// or every device for the account when device-id is omitted.
func (h *Handler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var body model.RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apierr.Validation("body"))
		return
	}

	devices, err := h.Store.Get(r.Context(), account)
	if err != nil {
		writeError(w, apierr.Store(err))
		return
	}
	if len(devices) == 0 {
		writeError(w, apierr.UserNotFound(account))
		return
	}

	if body.DeviceID == "" {
		if err := h.Store.Remove(r.Context(), account); err != nil {
			writeError(w, apierr.Store(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
		return
	}

	found := false
	for _, d := range devices {
		if d.AppID == body.AppID && d.DeviceID == body.DeviceID {
			found = true
			break
		}
	}
	if !found {
		writeError(w, apierr.DeviceNotFound(account, body.AppID, body.DeviceID))
		return
	}

	if err := h.Store.RemoveDevice(r.Context(), account, body.AppID, body.DeviceID); err != nil {
		writeError(w, apierr.Store(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// FanoutPush handles POST /v2/tokens/{account}/push[/{device}]: pushes
// to every registered device for the account, or to one device when the
// path carries a device id.
func (h *Handler) FanoutPush(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	device := chi.URLParam(r, "device")

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, apierr.Validation("body"))
		return
	}

	req := parsePushRequest(raw, h.AsyncDefault)
	req.ExplicitDevice = device

	if req.ReturnAsync {
		go h.Dispatcher.Fanout(context.Background(), account, req)
		writeOutcome(w, model.Outcome{Code: http.StatusAccepted, Description: "accepted for delivery"})
		return
	}

	writeOutcome(w, h.Dispatcher.Fanout(r.Context(), account, req))
}
