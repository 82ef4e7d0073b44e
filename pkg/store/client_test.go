package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

// setupStore starts an in-memory Redis and a connected client against it.
func setupStore(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := New(Config{
		URL:        "redis://" + mr.Addr(),
		DefaultTTL: time.Minute,
		Backoff:    BackoffPolicy{Step: time.Millisecond, Max: 10 * time.Millisecond},
	}, zerolog.Nop())

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() {
		client.Disconnect()
	})

	return client, mr
}

func TestClient_ConnectIdempotent(t *testing.T) {
	client, _ := setupStore(t)

	if !client.Connected() {
		t.Fatal("client should be connected after Connect")
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Errorf("second Connect returned error: %v", err)
	}
	if client.State().Status() != StatusConnected {
		t.Errorf("Status = %s, want %s", client.State().Status(), StatusConnected)
	}
}

func TestClient_DisconnectIdempotent(t *testing.T) {
	client, _ := setupStore(t)

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if client.Connected() {
		t.Error("client should be disconnected after Disconnect")
	}
	if err := client.Disconnect(); err != nil {
		t.Errorf("second Disconnect returned error: %v", err)
	}
}

func TestClient_Disconnect_NeverConnected(t *testing.T) {
	client := New(DefaultConfig(), zerolog.Nop())
	if err := client.Disconnect(); err != nil {
		t.Errorf("Disconnect on fresh client returned error: %v", err)
	}
}

func TestClient_Connect_NoURL(t *testing.T) {
	client := New(Config{}, zerolog.Nop())
	if err := client.Connect(context.Background()); err != ErrNoURL {
		t.Errorf("Connect error = %v, want %v", err, ErrNoURL)
	}
}

func TestClient_RoundTrip(t *testing.T) {
	client, _ := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{
			name:  "structured value",
			value: map[string]any{"status": "ok", "count": float64(3), "tags": []any{"a", "b"}},
			want:  map[string]any{"status": "ok", "count": float64(3), "tags": []any{"a", "b"}},
		},
		{
			name:  "array value",
			value: []any{"x", float64(1)},
			want:  []any{"x", float64(1)},
		},
		{
			name:  "plain string",
			value: "hello world",
			want:  "hello world",
		},
		{
			name:  "numeric looking string",
			value: "123",
			want:  "123",
		},
		{
			name:  "malformed json text",
			value: "{not json",
			want:  "{not json",
		},
		{
			name:  "byte slice",
			value: []byte("<html></html>"),
			want:  "<html></html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "test:" + tt.name
			if !client.Set(ctx, key, tt.value, 0) {
				t.Fatal("Set returned false")
			}
			got, ok := client.Get(ctx, key)
			if !ok {
				t.Fatal("Get returned false")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestClient_GetInto(t *testing.T) {
	client, _ := setupStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if !client.Set(ctx, "test:struct", payload{Name: "x", Count: 2}, time.Minute) {
		t.Fatal("Set returned false")
	}

	var got payload
	if !client.GetInto(ctx, "test:struct", &got) {
		t.Fatal("GetInto returned false")
	}
	if got != (payload{Name: "x", Count: 2}) {
		t.Errorf("GetInto = %+v", got)
	}

	client.Set(ctx, "test:text", "plain", time.Minute)
	if client.GetInto(ctx, "test:text", &got) {
		t.Error("GetInto should fail on a non-JSON value")
	}
	if client.GetInto(ctx, "test:missing", &got) {
		t.Error("GetInto should fail on a missing key")
	}
}

func TestClient_Get_Missing(t *testing.T) {
	client, _ := setupStore(t)

	got, ok := client.Get(context.Background(), "nope")
	if ok || got != nil {
		t.Errorf("Get on missing key = (%v, %v), want (nil, false)", got, ok)
	}
}

func TestClient_Set_TTL(t *testing.T) {
	client, mr := setupStore(t)
	ctx := context.Background()

	client.Set(ctx, "api:/a", "x", 30*time.Second)
	if ttl := mr.TTL("api:/a"); ttl != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", ttl)
	}

	client.Set(ctx, "page:/b", "x", 0)
	if ttl := mr.TTL("page:/b"); ttl != time.Minute {
		t.Errorf("default TTL = %v, want 1m", ttl)
	}

	mr.FastForward(31 * time.Second)
	if client.Exists(ctx, "api:/a") {
		t.Error("api:/a should have expired")
	}
	if !client.Exists(ctx, "page:/b") {
		t.Error("page:/b should still exist")
	}
}

func TestClient_Delete(t *testing.T) {
	client, _ := setupStore(t)
	ctx := context.Background()

	client.Set(ctx, "k", "v", 0)
	if !client.Delete(ctx, "k") {
		t.Fatal("Delete returned false")
	}
	if client.Exists(ctx, "k") {
		t.Error("key still exists after Delete")
	}
}

func TestClient_ClearByPrefix(t *testing.T) {
	client, mr := setupStore(t)
	ctx := context.Background()

	for _, key := range []string{"api:/a", "api:/b?x=1", "api:/c", "page:/", "page:/api:/x", "static:/app.js"} {
		client.Set(ctx, key, "v", 0)
	}

	removed := client.ClearByPrefix(ctx, "api:")
	if removed != 3 {
		t.Errorf("ClearByPrefix removed %d, want 3", removed)
	}
	for _, key := range []string{"page:/", "page:/api:/x", "static:/app.js"} {
		if !mr.Exists(key) {
			t.Errorf("%s should survive clearing api:", key)
		}
	}
	if mr.Exists("api:/a") {
		t.Error("api:/a should be gone")
	}

	if removed := client.ClearByPrefix(ctx, "api:"); removed != 0 {
		t.Errorf("second ClearByPrefix removed %d, want 0", removed)
	}
}

func TestClient_CountByPrefix(t *testing.T) {
	client, _ := setupStore(t)
	ctx := context.Background()

	client.Set(ctx, "static:/a.css", "v", 0)
	client.Set(ctx, "static:/b.css", "v", 0)
	client.Set(ctx, "page:/", "v", 0)

	n, ok := client.CountByPrefix(ctx, "static:")
	if !ok || n != 2 {
		t.Errorf("CountByPrefix = (%d, %v), want (2, true)", n, ok)
	}
}

func TestClient_IncrementAndExpire(t *testing.T) {
	client, mr := setupStore(t)
	ctx := context.Background()

	if n, ok := client.Increment(ctx, "hits", 1); !ok || n != 1 {
		t.Errorf("Increment = (%d, %v), want (1, true)", n, ok)
	}
	if n, ok := client.Increment(ctx, "hits", 5); !ok || n != 6 {
		t.Errorf("Increment = (%d, %v), want (6, true)", n, ok)
	}

	if !client.Expire(ctx, "hits", 10*time.Second) {
		t.Error("Expire on existing key returned false")
	}
	if ttl := mr.TTL("hits"); ttl != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", ttl)
	}
	if client.Expire(ctx, "missing", time.Second) {
		t.Error("Expire on missing key returned true")
	}

	client.Set(ctx, "text", "abc", 0)
	if _, ok := client.Increment(ctx, "text", 1); ok {
		t.Error("Increment on non-integer should fail")
	}
	if !client.Connected() {
		t.Error("a reply error must not flip the connection state")
	}
}

func TestClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := New(Config{URL: "redis://" + addr, DialTimeout: 200 * time.Millisecond}, zerolog.Nop())
	defer client.Disconnect()
	ctx := context.Background()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("Connect to a closed server should fail")
	}
	if client.Connected() {
		t.Error("client should report disconnected")
	}

	if client.Set(ctx, "k", "v", 0) {
		t.Error("Set should return false")
	}
	if v, ok := client.Get(ctx, "k"); ok || v != nil {
		t.Error("Get should return (nil, false)")
	}
	if client.Delete(ctx, "k") {
		t.Error("Delete should return false")
	}
	if n := client.ClearByPrefix(ctx, "k"); n != 0 {
		t.Errorf("ClearByPrefix = %d, want 0", n)
	}
	if _, ok := client.Increment(ctx, "k", 1); ok {
		t.Error("Increment should fail")
	}
	if client.Exists(ctx, "k") || client.Expire(ctx, "k", time.Second) {
		t.Error("Exists/Expire should return false")
	}
}

func TestClient_ReconnectsAfterOutage(t *testing.T) {
	client, mr := setupStore(t)
	ctx := context.Background()

	client.Set(ctx, "k", "v", 0)
	mr.Close()

	if _, ok := client.Get(ctx, "k"); ok {
		t.Fatal("Get should fail while the server is down")
	}
	if client.Connected() {
		t.Fatal("transport failure should mark the client disconnected")
	}

	if err := mr.Restart(); err != nil {
		t.Fatalf("restart miniredis: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !client.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("client did not reconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
