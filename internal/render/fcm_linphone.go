package render

import (
	"time"

	"github.com/relaynet/pushgateway/internal/model"
)

func init() {
	Register("linphone", model.PlatformFirebase, fcmLinphone{})
}

type fcmLinphone struct{}

func (fcmLinphone) Headers(req model.PushRequest) map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func (fcmLinphone) Payload(req model.PushRequest) ([]byte, error) {
	locKey := ""
	switch {
	case req.Silent:
		locKey = "IC_SIL"
	case req.Event == model.EventMessage:
		locKey = "IC_MSG"
	}

	return marshal(map[string]any{
		"to":            req.Token,
		"time_to_live":  2419199,
		"priority":      "high",
		"data": map[string]any{
			"call-id":   req.CallID,
			"sip-from":  req.SipFrom,
			"loc-key":   locKey,
			"loc-args":  req.SipFrom,
			"send-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
