package render

import (
	"time"

	"github.com/relaynet/pushgateway/internal/model"
)

func init() {
	Register("linphone", model.PlatformApple, apnsLinphone{})
}

type apnsLinphone struct{}

func (apnsLinphone) Headers(req model.PushRequest) map[string]string {
	return map[string]string{
		"apns-push-type":  "voip",
		"apns-topic":      stripTopicSuffix(req.AppID) + ".voip",
		"apns-priority":   "10",
		"apns-expiration": "10",
	}
}

const linphoneSendTimeLayout = "2006-01-02 15:04:05"

func (apnsLinphone) Payload(req model.PushRequest) ([]byte, error) {
	sendTime := time.Now().Format(linphoneSendTimeLayout)

	if req.Silent {
		return marshal(map[string]any{
			"aps": map[string]any{
				"sound":     "",
				"loc-key":   "IC_SIL",
				"call-id":   req.CallID,
				"send-time": sendTime,
			},
			"from-uri": req.SipFrom,
			"pn_ttl":   2592000,
		})
	}
	return marshal(map[string]any{
		"aps": map[string]any{
			"alert": map[string]any{
				"loc-key":  "IC_MSG",
				"loc-args": req.SipFrom,
			},
			"sound": "msg.caf",
			"badge": 1,
		},
		"pn_ttl":    2592000,
		"call-id":   req.CallID,
		"send-time": sendTime,
	})
}
