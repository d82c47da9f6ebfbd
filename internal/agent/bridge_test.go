package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobpilot/internal/session"
)

type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newCapturingServer(t *testing.T) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read upstream body: %v", err)
		}
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.header = r.Header.Clone()
		captured.body = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func configurableField(t *testing.T, body []byte, key string) (any, bool) {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal forwarded body: %v", err)
	}
	cfg, ok := payload["config"].(map[string]any)
	if !ok {
		return nil, false
	}
	configurable, ok := cfg["configurable"].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := configurable[key]
	return v, ok
}

func TestForward_InjectsIdentityWhenAbsent(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	body := []byte(`{"input":{"message":"find me a job"},"config":{"configurable":{"thread_id":"t-1"}}}`)
	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 42}, http.MethodPost, "/runs", nil, body)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	userID, ok := configurableField(t, captured.body, "user_id")
	if !ok {
		t.Fatalf("user_id not injected: %s", captured.body)
	}
	if userID != "42" {
		t.Fatalf("expected user_id %q, got %v", "42", userID)
	}

	threadID, ok := configurableField(t, captured.body, "thread_id")
	if !ok || threadID != "t-1" {
		t.Fatalf("existing configurable fields lost: %s", captured.body)
	}
}

func TestForward_CreatesConfigScaffolding(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 7}, http.MethodPost, "/runs", nil, []byte(`{"input":"hi"}`))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	userID, ok := configurableField(t, captured.body, "user_id")
	if !ok || userID != "7" {
		t.Fatalf("config scaffolding not created: %s", captured.body)
	}
}

func TestForward_NeverOverwritesExistingIdentity(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	body := []byte(`{"config":{"configurable":{"user_id":"999"}}}`)
	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 42}, http.MethodPost, "/runs", nil, body)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	userID, _ := configurableField(t, captured.body, "user_id")
	if userID != "999" {
		t.Fatalf("pre-existing user_id overwritten: %v", userID)
	}
}

func TestForward_AnonymousPassesBodyThrough(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	body := []byte(`{"input":"hi"}`)
	resp, err := bridge.Forward(context.Background(), session.Anonymous, http.MethodPost, "/runs", nil, body)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	if string(captured.body) != string(body) {
		t.Fatalf("anonymous body modified: %s", captured.body)
	}
}

func TestForward_MalformedBodyPassesThrough(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	body := []byte(`{"broken`)
	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 42}, http.MethodPost, "/runs", nil, body)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	if string(captured.body) != string(body) {
		t.Fatalf("malformed body modified: %s", captured.body)
	}
}

func TestForward_GetSkipsInjection(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 42}, http.MethodGet, "/threads/t-1/state", nil, nil)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	if captured.method != http.MethodGet || captured.path != "/threads/t-1/state" {
		t.Fatalf("unexpected upstream request: %s %s", captured.method, captured.path)
	}
	if len(captured.body) != 0 {
		t.Fatalf("GET grew a body: %s", captured.body)
	}
}

func TestForward_StripsCredentialHeaders(t *testing.T) {
	server, captured := newCapturingServer(t)
	bridge := NewBridge(server.URL, 5*time.Second, nil)

	header := http.Header{}
	header.Set("Authorization", "Bearer user-token")
	header.Set("Cookie", "session=abc")
	header.Set("X-Correlation-ID", "cid-1")

	resp, err := bridge.Forward(context.Background(), session.Identity{UserID: 42}, http.MethodPost, "/runs", header, []byte(`{}`))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	if captured.header.Get("Authorization") != "" || captured.header.Get("Cookie") != "" {
		t.Fatal("credential headers leaked upstream")
	}
	if captured.header.Get("X-Correlation-ID") != "cid-1" {
		t.Fatal("correlation id header not forwarded")
	}
}
