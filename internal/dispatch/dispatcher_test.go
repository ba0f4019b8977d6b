package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/registry"
	"github.com/relaynet/pushgateway/internal/render"
	"github.com/relaynet/pushgateway/internal/store"
	"github.com/relaynet/pushgateway/internal/vendor/apns"
	"github.com/relaynet/pushgateway/internal/vendor/fcm"
	"github.com/sideshow/apns2"
)

type scriptedPusher struct {
	responses []*apns2.Response
	i         int
}

func (s *scriptedPusher) Push(n *apns2.Notification) (*apns2.Response, error) {
	r := s.responses[s.i]
	if s.i < len(s.responses)-1 {
		s.i++
	}
	return r, nil
}

func TestDispatchNotConfigured(t *testing.T) {
	table := registry.NewTestTable(map[registry.Key]*registry.Binding{})
	d := &Dispatcher{Registry: registry.NewForTest(table)}

	outcome := d.Dispatch(context.Background(), model.PushRequest{
		AppID: "com.example.app", Platform: model.PlatformApple, Token: "AABB", CallID: "c1",
		SipFrom: "sip:a@example.com", SipTo: "sip:b@example.com",
	})
	if outcome.Code != 404 {
		t.Fatalf("code = %d, want 404", outcome.Code)
	}
}

func TestDispatchValidationError(t *testing.T) {
	d := &Dispatcher{Registry: registry.NewForTest(registry.NewTestTable(nil))}
	outcome := d.Dispatch(context.Background(), model.PushRequest{})
	if outcome.Code != 400 {
		t.Fatalf("code = %d, want 400", outcome.Code)
	}
}

func TestDispatchAPNSBadDeviceTokenMapsTo410(t *testing.T) {
	renderer, err := render.Lookup("sylk", model.PlatformApple)
	if err != nil {
		t.Fatal(err)
	}
	client := apns.NewWithPusher(&scriptedPusher{responses: []*apns2.Response{
		{StatusCode: 400, Reason: apns2.ReasonBadDeviceToken},
	}}, "https://api.push.apple.com")

	key := registry.Key{AppID: "com.example.app.dev", Platform: model.PlatformApple}
	table := registry.NewTestTable(map[registry.Key]*registry.Binding{
		key: {Key: key, Family: "sylk", Renderer: renderer, APNSClient: client},
	})
	d := &Dispatcher{Registry: registry.NewForTest(table)}

	outcome := d.Dispatch(context.Background(), model.PushRequest{
		AppID: "com.example.app.dev", Platform: model.PlatformApple,
		Event: model.EventIncomingSession, Token: "AABB", CallID: "call-42",
		SipFrom: "sip:a@example.com", SipTo: "sip:b@example.com",
	})
	if outcome.Code != 410 {
		t.Fatalf("code = %d, want 410", outcome.Code)
	}
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	renderer, err := render.Lookup("sylk", model.PlatformApple)
	if err != nil {
		t.Fatal(err)
	}
	client := apns.NewWithPusher(&scriptedPusher{responses: []*apns2.Response{
		{StatusCode: 503}, {StatusCode: 503}, {StatusCode: 200},
	}}, "https://api.push.apple.com")

	key := registry.Key{AppID: "com.example.app", Platform: model.PlatformApple}
	table := registry.NewTestTable(map[registry.Key]*registry.Binding{
		key: {Key: key, Family: "sylk", Renderer: renderer, APNSClient: client},
	})
	d := &Dispatcher{Registry: registry.NewForTest(table)}

	outcome := d.Dispatch(context.Background(), model.PushRequest{
		AppID: "com.example.app", Platform: model.PlatformApple,
		Event: model.EventCancel, Token: "AABB", CallID: "call-1",
		SipFrom: "sip:a@example.com", SipTo: "sip:b@example.com",
	})
	if outcome.Code != 200 {
		t.Fatalf("code = %d, want 200 after retries: %+v", outcome.Code, outcome)
	}
}

func TestFanoutUserNotFound(t *testing.T) {
	tmpStore, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer tmpStore.Close()

	d := &Dispatcher{Registry: registry.NewForTest(registry.NewTestTable(nil)), Store: tmpStore}
	outcome := d.Fanout(context.Background(), "nobody@example.com", model.PushRequest{Event: model.EventCancel, CallID: "c1"})
	if outcome.Code != 404 {
		t.Fatalf("code = %d, want 404", outcome.Code)
	}
}

func TestFanoutRemovesExpiredDevice(t *testing.T) {
	renderer, err := render.Lookup("linphone", model.PlatformFirebase)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"multicast_id":1,"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
	}))
	defer srv.Close()

	fcmClient := fcm.NewLegacy(srv.URL, "key123")

	key := registry.Key{AppID: "app1", Platform: model.PlatformFirebase}
	table := registry.NewTestTable(map[registry.Key]*registry.Binding{
		key: {Key: key, Family: "linphone", Renderer: renderer, FCMClient: fcmClient},
	})

	tmpStore, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer tmpStore.Close()

	ctx := context.Background()
	if err := tmpStore.Add(ctx, "alice@example.com", model.DeviceRecord{
		DeviceID: "dev1", AppID: "app1", Platform: model.PlatformFirebase, Token: "tok1",
	}); err != nil {
		t.Fatal(err)
	}

	d := &Dispatcher{Registry: registry.NewForTest(table), Store: tmpStore}
	outcome := d.Fanout(ctx, "alice@example.com", model.PushRequest{Event: model.EventMessage, CallID: "c1", SipFrom: "sip:a@b", SipTo: "sip:c@d"})
	if outcome.Code != 200 {
		t.Fatalf("aggregate code = %d, want 200", outcome.Code)
	}
	entries, ok := outcome.Data.([]model.Outcome)
	if !ok || len(entries) != 1 {
		t.Fatalf("data = %+v", outcome.Data)
	}
	if entries[0].Code != 200 {
		t.Fatalf("per-device code = %d, want 200 (overridden from 410)", entries[0].Code)
	}

	remaining, err := tmpStore.Get(ctx, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected device to be removed after 410, got %+v", remaining)
	}
}
