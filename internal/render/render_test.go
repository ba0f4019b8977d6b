package render

import (
	"encoding/json"
	"testing"

	"github.com/relaynet/pushgateway/internal/model"
)

func TestSessionIDStable(t *testing.T) {
	a := SessionID("call-42")
	b := SessionID("call-42")
	if a != b {
		t.Fatalf("session id not stable across calls: %q vs %q", a, b)
	}
	if len(a) != 36 {
		t.Fatalf("expected uuid-form string, got %q", a)
	}
}

func TestAPNSSylkIncomingSession(t *testing.T) {
	r, err := Lookup("sylk", model.PlatformApple)
	if err != nil {
		t.Fatal(err)
	}
	req := model.PushRequest{
		AppID:  "com.example.app.dev",
		Event:  model.EventIncomingSession,
		Token:  "AABB",
		CallID: "call-42",
	}

	headers := r.Headers(req)
	if headers["apns-push-type"] != "voip" {
		t.Errorf("push-type = %q, want voip", headers["apns-push-type"])
	}
	if headers["apns-priority"] != "10" {
		t.Errorf("priority = %q, want 10", headers["apns-priority"])
	}
	if headers["apns-topic"] != "com.example.app.voip" {
		t.Errorf("topic = %q, want com.example.app.voip", headers["apns-topic"])
	}

	payload, err := r.Payload(req)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	want := SessionID("call-42")
	if decoded["session-id"] != want {
		t.Errorf("session-id = %v, want %v", decoded["session-id"], want)
	}
}

func TestFCMLinphoneDefaultEvent(t *testing.T) {
	r, err := Lookup("linphone", model.PlatformFirebase)
	if err != nil {
		t.Fatal(err)
	}
	req := model.PushRequest{
		Token:     "tok-1",
		CallID:    "X",
		SipFrom:   "sip:a@b",
		MediaType: model.MediaAudio,
	}

	payload, err := r.Payload(req)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["to"] != "tok-1" {
		t.Errorf("to = %v, want tok-1", decoded["to"])
	}
	if decoded["priority"] != "high" {
		t.Errorf("priority = %v, want high", decoded["priority"])
	}
	if decoded["time_to_live"].(float64) != 2419199 {
		t.Errorf("time_to_live = %v, want 2419199", decoded["time_to_live"])
	}
	data := decoded["data"].(map[string]any)
	if data["call-id"] != "X" {
		t.Errorf("call-id = %v, want X", data["call-id"])
	}
	if data["sip-from"] != "sip:a@b" {
		t.Errorf("sip-from = %v, want sip:a@b", data["sip-from"])
	}
}

func TestUnknownRenderer(t *testing.T) {
	if _, err := Lookup("nope", model.PlatformApple); err == nil {
		t.Fatal("expected error for unregistered renderer")
	}
}
