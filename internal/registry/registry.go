// Package registry builds and holds the per-(app_id, platform) binding
// table: credentials resolution, vendor client construction, renderer
// lookup. The table is copy-on-write: readers take the current
// generation's pointer atomically and hold it for one request.
package registry

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/render"
	"github.com/relaynet/pushgateway/internal/vendor/apns"
	"github.com/relaynet/pushgateway/internal/vendor/fcm"
)

// Key identifies one binding, unique in the active table.
type Key struct {
	AppID    string
	Platform model.Platform
}

// Binding is the resolved, immutable-after-load entry for one
// (app_id, platform) pair.
type Binding struct {
	Key Key

	Family   string
	VoIP     bool
	Renderer render.Renderer

	APNSClient *apns.Client
	FCMClient  *fcm.Client

	Audit *model.AuditTarget

	Invalid       bool
	InvalidReason string
}

// Close releases the binding's vendor connections. Called on the
// superseded generation after a reload.
func (b *Binding) Close() {
	if b.APNSClient != nil {
		b.APNSClient.Close()
	}
}

// Table is one immutable registry generation.
type Table struct {
	bindings map[Key]*Binding
	Invalid  []*Binding
}

// Lookup returns the binding for (appID, platform), or ErrNotFound.
func (t *Table) Lookup(appID string, platform model.Platform) (*Binding, error) {
	b, ok := t.bindings[Key{AppID: appID, Platform: platform}]
	if !ok {
		return nil, fmt.Errorf("%w: app_id=%q platform=%q", ErrNotFound, appID, platform)
	}
	return b, nil
}

// ErrNotFound is returned by Lookup when no binding is registered for
// the requested key.
var ErrNotFound = fmt.Errorf("binding not found")

// NewTestTable assembles a Table from already-built bindings, for tests
// of packages downstream of registry that need a synthetic generation
// without parsing real INI files or loading real certificates.
func NewTestTable(bindings map[Key]*Binding) *Table {
	return &Table{bindings: bindings}
}

// NewForTest wraps a pre-built Table in a Registry, for tests of
// packages that depend on *Registry rather than *Table directly.
func NewForTest(table *Table) *Registry {
	r := &Registry{}
	r.current.Store(table)
	return r
}

// Sources bundles the three paths whose modification times gate a
// reload: the global config file, the application table, and the
// credentials directory.
type Sources struct {
	GlobalPath      string
	ApplicationsPath string
	CredentialsDir  string
}

// Registry holds the current generation behind an atomic pointer.
type Registry struct {
	sources Sources
	current atomic.Pointer[Table]
}

// New builds the initial generation and returns a Registry.
func New(sources Sources) (*Registry, error) {
	table, err := build(sources)
	if err != nil {
		return nil, err
	}
	r := &Registry{sources: sources}
	r.current.Store(table)
	logInvalid(table)
	return r, nil
}

// Current returns the active generation. Callers should hold the
// returned pointer for the duration of one request rather than calling
// Current repeatedly, so a concurrent reload cannot mix generations
// within a single request.
func (r *Registry) Current() *Table {
	return r.current.Load()
}

// Reload rebuilds the table from the current sources and swaps it in
// atomically. The superseded generation's bindings are closed only
// after the swap, so in-flight requests holding the old pointer keep
// working connections until they finish.
func (r *Registry) Reload() error {
	next, err := build(r.sources)
	if err != nil {
		return err
	}
	prev := r.current.Swap(next)
	logInvalid(next)
	if prev != nil {
		for _, b := range prev.bindings {
			b.Close()
		}
	}
	return nil
}

func logInvalid(t *Table) {
	for _, b := range t.Invalid {
		log.Printf("registry: binding app_id=%q platform=%q invalid: %s", b.Key.AppID, b.Key.Platform, b.InvalidReason)
	}
}
