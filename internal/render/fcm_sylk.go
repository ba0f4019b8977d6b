package render

import (
	"github.com/relaynet/pushgateway/internal/model"
)

func init() {
	Register("sylk", model.PlatformFirebase, fcmSylk{})
}

type fcmSylk struct{}

// Headers sets content-type, plus apns-priority 5 for a message event;
// authorization (legacy "key=" vs OAuth2 "Bearer") depends on the
// binding's credential kind and is added by internal/vendor/fcm rather
// than the renderer.
func (fcmSylk) Headers(req model.PushRequest) map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if req.Event == model.EventMessage {
		headers["apns-priority"] = "5"
	}
	return headers
}

func sylkDataBody(req model.PushRequest) map[string]string {
	sessionID := SessionID(req.CallID)
	switch req.Event {
	case model.EventCancel:
		return map[string]string{
			"event":      string(req.Event),
			"call-id":    req.CallID,
			"session-id": sessionID,
			"reason":     req.Reason,
		}
	case model.EventMessage:
		return map[string]string{
			"message_id": req.CallID,
		}
	default:
		return map[string]string{
			"from_uri":          req.SipFrom,
			"from_display_name": req.FromDisplayName,
			"to_uri":            req.SipTo,
			"media-type":        string(req.MediaType),
			"session-id":        sessionID,
		}
	}
}

func (fcmSylk) Payload(req model.PushRequest) ([]byte, error) {
	message := map[string]any{
		"token": req.Token,
		"data":  sylkDataBody(req),
		"android": map[string]any{
			"priority": "high",
			"ttl":      "60s",
		},
	}

	if req.Event == model.EventMessage {
		alert := req.FromDisplayName
		if alert == "" {
			alert = req.SipFrom
		}
		message["notification"] = map[string]any{
			"title": req.AppID,
			"body":  alert,
		}
		message["apns"] = map[string]any{
			"headers": map[string]string{"apns-priority": "5"},
		}
	}

	return marshal(map[string]any{"message": message})
}
