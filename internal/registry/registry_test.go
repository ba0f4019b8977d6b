package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relaynet/pushgateway/internal/model"
	_ "github.com/relaynet/pushgateway/internal/render"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestBuildMarksMissingCertInvalid(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.ini")
	appsPath := filepath.Join(dir, "applications.ini")
	writeFile(t, globalPath, "[server]\nhost=0.0.0.0\n")
	writeFile(t, appsPath, `
[app1]
app_id = com.example.app.dev
app_type = sylk
app_platform = apple
apple_push_url = api.push.apple.com:443
apple_certificate = missing.pem
apple_key = missing.key
`)

	table, err := build(Sources{GlobalPath: globalPath, ApplicationsPath: appsPath, CredentialsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Invalid) != 1 {
		t.Fatalf("expected 1 invalid binding, got %d: %+v", len(table.Invalid), table.Invalid)
	}
	if _, err := table.Lookup("com.example.app.dev", model.PlatformApple); err == nil {
		t.Fatal("invalid binding must not be reachable via Lookup")
	}
}

func TestBuildUnknownPlatform(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.ini")
	appsPath := filepath.Join(dir, "applications.ini")
	writeFile(t, globalPath, "[server]\n")
	writeFile(t, appsPath, `
[app1]
app_id = com.example.app
app_type = sylk
app_platform = blackberry
`)

	table, err := build(Sources{GlobalPath: globalPath, ApplicationsPath: appsPath, CredentialsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Invalid) != 1 {
		t.Fatalf("expected 1 invalid binding, got %d", len(table.Invalid))
	}
}

func TestBuildLegacyFirebaseBinding(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.ini")
	appsPath := filepath.Join(dir, "applications.ini")
	writeFile(t, globalPath, "[server]\n")
	writeFile(t, appsPath, `
[app1]
app_id = com.example.app
app_type = linphone
app_platform = firebase
firebase_push_url = https://fcm.googleapis.com/fcm/send
firebase_authorization_key = legacy-key-123
`)

	table, err := build(Sources{GlobalPath: globalPath, ApplicationsPath: appsPath, CredentialsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Invalid) != 0 {
		t.Fatalf("expected no invalid bindings, got %+v", table.Invalid)
	}
	b, err := table.Lookup("com.example.app", model.PlatformFirebase)
	if err != nil {
		t.Fatal(err)
	}
	if b.FCMClient == nil {
		t.Fatal("expected an fcm client")
	}
}
