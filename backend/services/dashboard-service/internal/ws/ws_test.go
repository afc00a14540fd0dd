package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeVoice struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeVoice) Submit(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

type counter struct {
	mu      sync.Mutex
	current int
}

func (c *counter) ClientConnected() {
	c.mu.Lock()
	c.current++
	c.mu.Unlock()
}

func (c *counter) ClientDisconnected() {
	c.mu.Lock()
	c.current--
	c.mu.Unlock()
}

func decode(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return env
}

func TestCommandsProcess(t *testing.T) {
	voice := &fakeVoice{}
	sos, refreshed := 0, 0
	c := NewCommands(Actions{
		Voice:   voice,
		SOS:     func() { sos++ },
		Refresh: func() bool { refreshed++; return true },
	}, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name     string
		raw      string
		wantType string
		wantErr  bool
	}{
		{name: "voice", raw: `{"type":"voice","text":" nearest station "}`, wantType: TypeAck},
		{name: "sos", raw: `{"type":"sos"}`, wantType: TypeAck},
		{name: "refresh", raw: `{"type":"refresh"}`, wantType: TypeAck},
		{name: "blank voice", raw: `{"type":"voice","text":"  "}`, wantType: TypeError, wantErr: true},
		{name: "unknown", raw: `{"type":"dance"}`, wantType: TypeError, wantErr: true},
		{name: "invalid json", raw: `{`, wantType: TypeError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Process(ctx, "client", []byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if env := decode(t, resp); env.Type != tt.wantType {
				t.Fatalf("type = %q, want %q", env.Type, tt.wantType)
			}
		})
	}

	if len(voice.texts) != 1 || voice.texts[0] != "nearest station" {
		t.Fatalf("voice texts = %v", voice.texts)
	}
	if sos != 1 || refreshed != 1 {
		t.Fatalf("sos=%d refreshed=%d", sos, refreshed)
	}

	_, err := c.Process(ctx, "client", []byte(`{"type":"dance"}`))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

func TestServerGreetsBroadcastsAndAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := &counter{}
	hub := NewHub(obs, zap.NewNop())
	voice := &fakeVoice{}
	commands := NewCommands(Actions{Voice: voice, SOS: func() {}, Refresh: func() bool { return true }}, zap.NewNop())
	greeting := func() ([]byte, error) { return Encode(TypeStatus, map[string]int{"soc": 85}) }
	srv := httptest.NewServer(NewServer(ctx, hub, commands, greeting, time.Second, zap.NewNop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if env := decode(t, raw); env.Type != TypeStatus {
		t.Fatalf("greeting type = %q", env.Type)
	}

	waitFor(t, func() bool { return hub.Count() == 1 })
	hub.Publish(TypeSpeech, "hello driver")
	_, raw, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if env := decode(t, raw); env.Type != TypeSpeech || env.Data != "hello driver" {
		t.Fatalf("broadcast = %+v", env)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"voice","text":"battery"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, raw, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if env := decode(t, raw); env.Type != TypeAck {
		t.Fatalf("ack = %+v", env)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.current != 0 {
		t.Fatalf("connected gauge = %d, want 0", obs.current)
	}
}
