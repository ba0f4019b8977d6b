package registry

import (
	"context"
	"fmt"

	"github.com/relaynet/pushgateway/internal/config"
	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/normalize"
	"github.com/relaynet/pushgateway/internal/render"
	"github.com/relaynet/pushgateway/internal/vendor/apns"
	"github.com/relaynet/pushgateway/internal/vendor/fcm"
)

// build parses both INI files and constructs every binding's vendor
// client and renderer handle. A binding that fails any step is marked
// invalid with a human-readable reason rather than aborting the whole
// build.
func build(sources Sources) (*Table, error) {
	global, err := config.LoadGlobal(sources.GlobalPath)
	if err != nil {
		return nil, err
	}
	entries, err := config.LoadApplications(sources.ApplicationsPath)
	if err != nil {
		return nil, err
	}

	table := &Table{bindings: make(map[Key]*Binding, len(entries))}
	seen := make(map[Key]bool, len(entries))

	for _, e := range entries {
		b := buildOne(e, sources.CredentialsDir, global)
		if b.Invalid {
			table.Invalid = append(table.Invalid, b)
			continue
		}
		if seen[b.Key] {
			b.Invalid = true
			b.InvalidReason = fmt.Sprintf("duplicate binding for app_id=%q platform=%q", b.Key.AppID, b.Key.Platform)
			table.Invalid = append(table.Invalid, b)
			continue
		}
		seen[b.Key] = true
		table.bindings[b.Key] = b
	}

	return table, nil
}

func buildOne(e config.AppEntry, credentialsDir string, global *config.Global) *Binding {
	platform, ok := normalize.Platform(e.Platform)
	if !ok {
		return &Binding{
			Key:           Key{AppID: e.AppID, Platform: model.Platform(e.Platform)},
			Family:        e.Family,
			Invalid:       true,
			InvalidReason: fmt.Sprintf("unknown platform %q", e.Platform),
		}
	}

	b := &Binding{
		Key:    Key{AppID: e.AppID, Platform: platform},
		Family: e.Family,
		VoIP:   e.VoIP,
	}

	if len(e.LogRemoteURLs) > 0 {
		b.Audit = &model.AuditTarget{URLs: e.LogRemoteURLs, Key: e.LogKey, TimeoutS: e.LogTimeoutS}
	}

	renderer, err := render.Lookup(e.Family, platform)
	if err != nil {
		b.Invalid = true
		b.InvalidReason = err.Error()
		return b
	}
	b.Renderer = renderer

	switch platform {
	case model.PlatformApple:
		cert := config.ResolvePath(credentialsDir, e.AppleCertificate)
		key := config.ResolvePath(credentialsDir, e.AppleKey)
		client, err := apns.New(cert, key, e.ApplePushURL)
		if err != nil {
			b.Invalid = true
			b.InvalidReason = fmt.Sprintf("apns client: %v", err)
			return b
		}
		b.APNSClient = client

	case model.PlatformFirebase:
		switch {
		case e.FirebaseAuthKey != "":
			b.FCMClient = fcm.NewLegacy(e.FirebasePushURL, e.FirebaseAuthKey)
		case e.FirebaseAuthFile != "":
			file := config.ResolvePath(credentialsDir, e.FirebaseAuthFile)
			client, err := fcm.NewOAuth2(context.Background(), e.FirebasePushURL, file)
			if err != nil {
				b.Invalid = true
				b.InvalidReason = fmt.Sprintf("fcm client: %v", err)
				return b
			}
			b.FCMClient = client
		default:
			b.Invalid = true
			b.InvalidReason = "firebase binding has neither firebase_authorization_key nor firebase_authorization_file"
			return b
		}
	}

	return b
}
