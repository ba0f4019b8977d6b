package edge

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/relaynet/pushgateway/internal/apierr"
	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/normalize"
)

// Push handles POST /push, the single-device dispatch path.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, apierr.Validation("body"))
		return
	}

	req := parsePushRequest(raw, h.AsyncDefault)

	if req.ReturnAsync {
		go h.Dispatcher.Dispatch(context.Background(), req)
		writeOutcome(w, model.Outcome{Code: http.StatusAccepted, Description: "accepted for delivery"})
		return
	}

	writeOutcome(w, h.Dispatcher.Dispatch(r.Context(), req))
}

// parsePushRequest remaps the wire's dash/SIP-flavored field names to
// the internal snake_case vocabulary and canonicalizes platform/event.
// Field-level required/enum validation is the dispatcher's job, not
// the edge's.
func parsePushRequest(raw map[string]any, asyncDefault bool) model.PushRequest {
	internal := normalize.RemapKeys(raw)

	req := model.PushRequest{
		AppID:           getString(internal, "app_id"),
		Token:           getString(internal, "token"),
		CallID:          getString(internal, "call_id"),
		SipFrom:         getString(internal, "sip_from"),
		SipTo:           getString(internal, "sip_to"),
		FromDisplayName: getString(internal, "from_display_name"),
		Silent:          getBool(internal, "silent", false),
		Reason:          getString(internal, "reason"),
		Badge:           getInt(internal, "badge", 0),
		DeviceID:        normalize.DeviceID(internal["device_id"]),
		ReturnAsync:     getBool(internal, "return_async", asyncDefault),
	}

	req.Event = normalize.Event(getString(internal, "event"))

	if platform, ok := normalize.Platform(getString(internal, "platform")); ok {
		req.Platform = platform
	}

	if mt := getString(internal, "media_type"); mt != "" {
		req.MediaType = model.MediaType(mt)
		req.HasMediaType = true
	}

	return req
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getBool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func getInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
