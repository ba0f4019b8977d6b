package render

import (
	"strings"

	"github.com/relaynet/pushgateway/internal/model"
)

func init() {
	Register("sylk", model.PlatformApple, apnsSylk{})
}

type apnsSylk struct{}

// stripTopicSuffix removes a trailing ".dev" or ".prod" environment
// marker from an app id before it is used as an APNs topic.
func stripTopicSuffix(appID string) string {
	for _, suffix := range []string{".dev", ".prod"} {
		if strings.HasSuffix(appID, suffix) {
			return strings.TrimSuffix(appID, suffix)
		}
	}
	return appID
}

func (apnsSylk) Headers(req model.PushRequest) map[string]string {
	voip := model.VoIPEvents[req.Event]

	pushType := "alert"
	switch {
	case voip:
		pushType = "voip"
	case req.Event == model.EventCancel:
		pushType = "background"
	}

	topic := stripTopicSuffix(req.AppID)
	if voip {
		topic += ".voip"
	}

	priority := "5"
	if voip {
		priority = "10"
	}

	return map[string]string{
		"apns-push-type":  pushType,
		"apns-topic":      topic,
		"apns-priority":   priority,
		"apns-expiration": "120",
	}
}

func (apnsSylk) Payload(req model.PushRequest) ([]byte, error) {
	sessionID := SessionID(req.CallID)

	switch req.Event {
	case model.EventCancel:
		return marshal(map[string]any{
			"event":      string(req.Event),
			"call-id":    req.CallID,
			"session-id": sessionID,
			"reason":     req.Reason,
		})
	case model.EventMessage:
		return marshal(map[string]any{
			"aps": map[string]any{
				"alert": map[string]any{
					"title": "New message",
					"body":  "From " + req.SipFrom,
				},
				"message_id": req.CallID,
				"sound":      "default",
				"badge":      req.Badge,
			},
		})
	default:
		return marshal(map[string]any{
			"from_uri":          req.SipFrom,
			"from_display_name": req.FromDisplayName,
			"to_uri":            req.SipTo,
			"media-type":        string(req.MediaType),
			"session-id":        sessionID,
		})
	}
}
