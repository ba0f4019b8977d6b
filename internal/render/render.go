// Package render implements the per-(family, vendor) pure rendering
// functions from a normalized push request to vendor headers and
// payload. Renderers are registered explicitly at init time, rather
// than looked up through a dynamic string-based class registry.
package render

import (
	"crypto/md5"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/relaynet/pushgateway/internal/model"
)

// Renderer produces vendor-ready headers and a JSON payload for a
// normalized request. Implementations must be pure and stateless.
type Renderer interface {
	Headers(req model.PushRequest) map[string]string
	Payload(req model.PushRequest) ([]byte, error)
}

type key struct {
	Family   string
	Platform model.Platform
}

var registry = map[key]Renderer{}

// Register adds a renderer for the given (family, platform) pair. Called
// from each renderer file's init(); also the extension point for a
// user-supplied plugin registration instead of the original's
// string-based class lookup.
func Register(family string, platform model.Platform, r Renderer) {
	registry[key{family, platform}] = r
}

// ErrUnknownRenderer names a (family, platform) pair with no registered
// renderer.
type ErrUnknownRenderer struct {
	Family   string
	Platform model.Platform
}

func (e ErrUnknownRenderer) Error() string {
	return fmt.Sprintf("no renderer registered for family=%q platform=%q", e.Family, e.Platform)
}

// Lookup resolves the renderer for (family, platform).
func Lookup(family string, platform model.Platform) (Renderer, error) {
	r, ok := registry[key{family, platform}]
	if !ok {
		return nil, ErrUnknownRenderer{Family: family, Platform: platform}
	}
	return r, nil
}

// SessionID derives a stable session id from a call id: the
// UUIDv4-form of MD5(call_id), segmented 8-4-4-4-12.
func SessionID(callID string) string {
	sum := md5.Sum([]byte(callID))
	u, _ := uuid.FromBytes(sum[:])
	return u.String()
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
