package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/ratelimit"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

func testPage() Page {
	return Page{
		Name:  "test",
		Title: "Test page",
		Build: func(doc *dom.Document) error {
			root := doc.Root()
			root.AppendChild(doc.CreateElement("label", doc.CreateText("A")).SetAttr("for", "a"))
			root.AppendChild(doc.CreateElement("input").SetAttr("id", "a").AddClass("jslider").
				SetAttr("data-from", "0").SetAttr("data-to", "10").SetAttr("value", "2"))
			root.AppendChild(doc.CreateElement("input").SetAttr("id", "b").AddClass("jslider").
				SetAttr("data-from", "0").SetAttr("data-to", "100").SetAttr("value", "20;80"))
			return nil
		},
	}
}

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	clock *ratelimit.ManualClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	clock := ratelimit.NewManualClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger), WithPage(testPage()), WithClock(clock)}, opts...)
	srv, err := New(&Config{DefaultPage: "test"}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	return &testEnv{srv: srv, ts: ts, clock: clock}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *testEnv) session(t *testing.T) *Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var found *Session
		e.srv.Sessions().ForEach(func(s *Session) bool {
			found = s
			return false
		})
		if found != nil {
			return found
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no session")
	return nil
}

func send(t *testing.T, conn *websocket.Conn, msg protocol.ClientMessage) {
	t.Helper()
	data, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ protocol.Type) *protocol.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			t.Fatal(err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

// syncLoop waits until every message sent so far has been handled.
func syncLoop(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, protocol.ClientMessage{Type: protocol.TypePing})
	readUntil(t, conn, protocol.TypePong)
}

func initPage(t *testing.T, conn *websocket.Conn) map[string]binding.Value {
	t.Helper()
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeInit, Page: "test"})
	readUntil(t, conn, protocol.TypeRender)
	return readUntil(t, conn, protocol.TypeValues).Values
}

func TestInitRendersPage(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	send(t, conn, protocol.ClientMessage{Type: protocol.TypeInit, Page: "test"})
	render := readUntil(t, conn, protocol.TypeRender)
	if !strings.Contains(render.HTML, `<span class="jslider jslider_range">`) {
		t.Errorf("range widget markup missing:\n%s", render.HTML)
	}
	if strings.Contains(render.HTML, "<body") {
		t.Errorf("render includes the body element:\n%s", render.HTML)
	}

	state := readUntil(t, conn, protocol.TypeState)
	if st := state.States["b"]; st.Max != 100 || !st.Value.IsPair() {
		t.Errorf("state of b = %+v", st)
	}
	if st := state.States["a"]; st.Label != "A" {
		t.Errorf("label of a = %q", st.Label)
	}

	values := readUntil(t, conn, protocol.TypeValues).Values
	if len(values) != 2 || values["a"].Float() != 2 || !values["b"].ApproxEqual(binding.Pair(20, 80), 0) {
		t.Errorf("initial values = %v", values)
	}
}

func TestDragRelaysDebouncedValue(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	env := newTestEnv(t, OnInput(func(s *Session, id string, v binding.Value) {
		mu.Lock()
		seen = append(seen, id+"="+v.String())
		mu.Unlock()
	}))
	conn := env.dial(t)
	initPage(t, conn)

	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "a", Value: "5"})
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "a", Value: "7"})
	syncLoop(t, conn)

	env.clock.Advance(250 * time.Millisecond)
	values := readUntil(t, conn, protocol.TypeValues).Values
	if len(values) != 1 || values["a"].Float() != 7 {
		t.Errorf("relayed values = %v, want a=7", values)
	}

	sess := env.session(t)
	if v, ok := sess.Value("a"); !ok || v.Float() != 7 {
		t.Errorf("session value = %v, %v", v, ok)
	}

	syncLoop(t, conn)
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[2] != "a=7" {
		t.Errorf("handler saw %v, want initial values then a=7", seen)
	}
}

func TestAnimatingBypassesDebounce(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	initPage(t, conn)

	send(t, conn, protocol.ClientMessage{Type: protocol.TypeAnimate, ID: "b", On: true})
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "b", Value: "30;70"})

	values := readUntil(t, conn, protocol.TypeValues).Values
	if !values["b"].ApproxEqual(binding.Pair(30, 70), 0) {
		t.Errorf("values = %v, want b=30;70 without waiting", values)
	}
}

func TestMessageErrors(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "a", Value: "1"})
	if msg := readUntil(t, conn, protocol.TypeError); msg.Code != protocol.ErrNotInitialized {
		t.Errorf("drag before init: code %s", msg.Code)
	}

	send(t, conn, protocol.ClientMessage{Type: protocol.TypeInit, Page: "nope"})
	if msg := readUntil(t, conn, protocol.TypeError); msg.Code != protocol.ErrPageNotFound {
		t.Errorf("unknown page: code %s", msg.Code)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`))
	if msg := readUntil(t, conn, protocol.TypeError); msg.Code != protocol.ErrInvalidMessage {
		t.Errorf("bad json: code %s", msg.Code)
	}

	initPage(t, conn)
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "zzz", Value: "1"})
	if msg := readUntil(t, conn, protocol.TypeError); msg.Code != protocol.ErrInputNotFound {
		t.Errorf("unknown input: code %s", msg.Code)
	}
}

func TestPushInputMessage(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	initPage(t, conn)
	sess := env.session(t)

	body := `{"id":"a","message":{"value":9,"label":"Alpha"}}`
	resp, err := http.Post(env.ts.URL+"/api/sessions/"+sess.ID+"/inputs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	render := readUntil(t, conn, protocol.TypeRender)
	if !strings.Contains(render.HTML, `<label for="a">Alpha</label>`) {
		t.Errorf("label not updated in render:\n%s", render.HTML)
	}
	state := readUntil(t, conn, protocol.TypeState)
	if st := state.States["a"]; st.Label != "Alpha" || st.Value.Float() != 9 {
		t.Errorf("state = %+v", st)
	}

	// The synthesized change relays the pushed value after the window.
	env.clock.Advance(time.Second)
	if values := readUntil(t, conn, protocol.TypeValues).Values; values["a"].Float() != 9 {
		t.Errorf("values = %v", values)
	}

	resp, err = http.Post(env.ts.URL+"/api/sessions/missing/inputs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d", resp.StatusCode)
	}

	resp, err = http.Post(env.ts.URL+"/api/sessions/"+sess.ID+"/inputs", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d", resp.StatusCode)
	}
}

func TestStateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	initPage(t, conn)
	sess := env.session(t)

	resp, err := http.Get(env.ts.URL + "/api/sessions/" + sess.ID + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	snap, err := snapshot.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SessionID != sess.ID || snap.Page != "test" || len(snap.States) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	resp, err = http.Get(env.ts.URL + "/api/sessions/missing/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing session status = %d", resp.StatusCode)
	}
}

func TestSnapshots(t *testing.T) {
	store := snapshot.NewMemoryStore()
	env := newTestEnv(t, WithSnapshotStore(store))
	conn := env.dial(t)
	initPage(t, conn)
	sess := env.session(t)

	resp, err := http.Post(env.ts.URL+"/api/sessions/"+sess.ID+"/snapshots", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d snapshots", store.Len())
	}

	// Closing after a change writes a second snapshot.
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeAnimate, ID: "a", On: true})
	send(t, conn, protocol.ClientMessage{Type: protocol.TypeDrag, ID: "a", Value: "9"})
	readUntil(t, conn, protocol.TypeValues)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	keys, _ := store.List(context.Background(), sess.ID)
	if len(keys) != 2 {
		t.Errorf("snapshots after close = %v", keys)
	}
}

func TestSnapshotWithoutStore(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Post(env.ts.URL+"/api/sessions/x/snapshots", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHTTPRoutes(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	initPage(t, conn)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, `data-page="test"`},
		{"/?page=test", http.StatusOK, "<title>Test page</title>"},
		{"/?page=nope", http.StatusNotFound, ""},
		{"/healthz", http.StatusOK, `"active":1`},
		{"/metrics", http.StatusOK, "sliderbind_messages_received_total"},
		{"/static/sliderbind.js", http.StatusOK, "WebSocket"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(env.ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("body does not contain %q:\n%s", tt.want, data)
			}
		})
	}
}

func TestMaxSessions(t *testing.T) {
	env := newTestEnv(t)
	env.srv.sessions.maxSessions = 1
	env.dial(t)
	env.session(t)

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second session accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("response = %v", resp)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	initPage(t, conn)
	sess := env.session(t)

	if err := env.srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !sess.IsClosed() || env.srv.Sessions().Count() != 0 {
		t.Error("session still open after Shutdown")
	}
	if err := sess.SendInputMessage("a", binding.LabelMessage("x")); err != ErrSessionClosed {
		t.Errorf("SendInputMessage after close = %v", err)
	}
}
