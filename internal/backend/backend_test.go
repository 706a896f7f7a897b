package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rusenback/docker-console/internal/model"
	"github.com/rusenback/docker-console/internal/stream"
	"github.com/rusenback/docker-console/internal/stream/streamtest"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base string
		name string
		mode stream.Mode
		want string
	}{
		{"http://localhost:8080", "web", stream.ModeLogs, "ws://localhost:8080/api/containers/web/logs"},
		{"https://node.example.com", "db-1", stream.ModeExec, "wss://node.example.com/api/containers/db-1/exec"},
		{"https://node.example.com/panel/", "web", stream.ModeLogs, "wss://node.example.com/panel/api/containers/web/logs"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			base, err := ParseBase(tc.base)
			if err != nil {
				t.Fatalf("ParseBase: %v", err)
			}
			if got := StreamURL(base, tc.name, tc.mode); got != tc.want {
				t.Errorf("StreamURL() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseBaseRejects(t *testing.T) {
	for _, raw := range []string{"ftp://host", "localhost:8080", "http://"} {
		if _, err := ParseBase(raw); err == nil {
			t.Errorf("ParseBase(%q): expected error", raw)
		}
	}
}

func TestClient_ListContainers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/containers" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "1", "name": "a", "state": "exited"},
			{"id": "2", "name": "b", "state": "running"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	containers, err := client.ListContainers(context.Background())
	if err != nil {
		t.Fatalf("ListContainers: %v", err)
	}
	want := []model.Container{
		{ID: "1", Name: "a", State: model.StateExited},
		{ID: "2", Name: "b", State: model.StateRunning},
	}
	if len(containers) != len(want) {
		t.Fatalf("expected %d containers, got %d", len(want), len(containers))
	}
	for i := range want {
		if containers[i] != want[i] {
			t.Errorf("container %d = %+v, want %+v", i, containers[i], want[i])
		}
	}
}

func TestClient_ListContainersStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "docker daemon unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.ListContainers(context.Background())
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusBadGateway {
		t.Fatalf("expected status error 502, got %v", err)
	}
	if !strings.Contains(status.Body, "docker daemon unavailable") {
		t.Errorf("expected body in error, got %q", status.Body)
	}
}

func TestClient_DialLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/containers/web/logs" {
			http.NotFound(w, r)
			return
		}
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"log","data":"hello"}`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"end"}`))
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	conn, err := client.Dial(context.Background(), "web", stream.ModeLogs)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	msg, err := conn.ReadMessage()
	if err != nil || msg.Type != stream.MessageTypeLog || msg.Data != "hello" {
		t.Fatalf("first read = %+v, %v", msg, err)
	}
	msg, err = conn.ReadMessage()
	if err != nil || msg.Type != stream.MessageTypeEnd {
		t.Fatalf("expected unknown type skipped and end next, got %+v, %v", msg, err)
	}
	if _, err := conn.ReadMessage(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on normal close, got %v", err)
	}
}

func TestClient_DialNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Dial(context.Background(), "ghost", stream.ModeExec)
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Errorf("expected 404 status error, got %v", err)
	}
}

func TestClient_ExecOverTransport(t *testing.T) {
	received := make(chan stream.Message, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msg, err := stream.Decode(data)
			if err != nil {
				continue
			}
			received <- msg
			if msg.Type == stream.MessageTypeInput {
				out, _ := stream.Encode(stream.Message{Type: stream.MessageTypeOutput, Data: msg.Data})
				ws.WriteMessage(websocket.TextMessage, out)
			}
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	events := make(chan stream.Event, 8)
	h := stream.NewTransport(client, nil).Open(context.Background(), "web", stream.ModeExec, func(ev stream.Event) {
		events <- ev
	})
	defer h.Close()

	select {
	case ev := <-events:
		if ev.Kind != stream.EventConnected {
			t.Fatalf("expected connected, got %s %v", ev.Kind, ev.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect")
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := h.Send(stream.Input(key)); err != nil {
			t.Fatalf("Send(%q): %v", key, err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		select {
		case msg := <-received:
			if msg.Type != stream.MessageTypeInput || msg.Data != want {
				t.Errorf("server got %+v, want input %q", msg, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for input %q", want)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		select {
		case ev := <-events:
			if ev.Kind != stream.EventMessage || ev.Message.Data != want {
				t.Errorf("got event %s %q, want output %q", ev.Kind, ev.Message.Data, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for output %q", want)
		}
	}

	if !streamtest.WaitFor(time.Second, func() bool { return h.State() == stream.StateConnected }) {
		t.Errorf("expected handle still connected, got %s", h.State())
	}
}
