// Package normalize canonicalizes wire-level aliases into the internal
// field names and platform/event vocabulary used by the rest of the
// dispatcher.
package normalize

import (
	"strconv"
	"strings"

	"github.com/relaynet/pushgateway/internal/model"
)

// Platform canonicalizes a free-form platform string to the internal
// {apple, firebase} vocabulary. The second return value is false when the
// input does not match any known alias.
func Platform(raw string) (model.Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ios", "apple":
		return model.PlatformApple, true
	case "android", "firebase", "fcm":
		return model.PlatformFirebase, true
	default:
		return "", false
	}
}

// Event canonicalizes a free-form event string. Unknown events pass
// through unchanged; validation of the allowed set happens at the
// dispatcher boundary, not here.
func Event(raw string) model.Event {
	return model.Event(strings.ToLower(strings.TrimSpace(raw)))
}

// WireAliases maps the dash/SIP-flavored field names used on the wire to
// their internal snake_case equivalents.
var WireAliases = map[string]string{
	"app-id":            "app_id",
	"call-id":           "call_id",
	"from":              "sip_from",
	"to":                "sip_to",
	"media-type":        "media_type",
	"device-id":         "device_id",
	"from-display-name": "from_display_name",
}

// InternalToWire is the reverse of WireAliases, mapping each internal
// field name back to its wire alias.
var InternalToWire = reverse(WireAliases)

func reverse(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// RemapKeys rewrites the keys of a generic JSON object from wire aliases
// to internal names, leaving unrecognized keys untouched.
func RemapKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if internal, ok := WireAliases[k]; ok {
			out[internal] = v
			continue
		}
		out[k] = v
	}
	return out
}

// DeviceID tolerates a device id sent as a JSON number instead of a
// string: a bare number decodes as a float64, so this renders it back
// to the string a string literal would have produced, trimming a
// trailing ".0" in the integer case.
func DeviceID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strconv.FormatInt(0, 10)
	}
}
