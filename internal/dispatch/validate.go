package dispatch

import (
	"github.com/relaynet/pushgateway/internal/apierr"
	"github.com/relaynet/pushgateway/internal/model"
)

// validEvents is the enumerated event set. An empty event is also
// accepted: renderers treat it as the default-session branch.
var validEvents = map[model.Event]bool{
	"":                                   true,
	model.EventIncomingSession:           true,
	model.EventIncomingConferenceRequest: true,
	model.EventCancel:                    true,
	model.EventMessage:                   true,
}

// familyRequiredFields lists the additional fields required on top of
// the common set, per application family. A family absent from this
// map (e.g. linphone, which defaults a missing event to
// incoming_session) requires nothing beyond the common fields.
var familyRequiredFields = map[string][]string{
	"sylk": {"event"},
}

// Validate checks req's common required fields and enumerated values,
// independent of which application family it will be routed to. A
// missing or malformed field short-circuits with a field-naming
// ValidationError.
func Validate(req model.PushRequest) *apierr.Error {
	if req.AppID == "" {
		return apierr.Validation("app-id")
	}
	if req.Platform != model.PlatformApple && req.Platform != model.PlatformFirebase {
		return apierr.Validation("platform")
	}
	if !validEvents[req.Event] {
		return apierr.Validation("event")
	}
	if req.Token == "" {
		return apierr.Validation("token")
	}
	if req.CallID == "" {
		return apierr.Validation("call-id")
	}
	if req.SipFrom == "" {
		return apierr.Validation("from")
	}
	if req.SipTo == "" {
		return apierr.Validation("to")
	}
	return nil
}

// ValidateFamily checks the fields a specific application family
// additionally requires beyond the common set. It runs after the
// registry lookup resolves the binding, since the family-specific
// requirement is unknown until then.
func ValidateFamily(req model.PushRequest, family string) *apierr.Error {
	for _, field := range familyRequiredFields[family] {
		switch field {
		case "event":
			if req.Event == "" {
				return apierr.Validation("event")
			}
		}
	}
	return nil
}
