package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// memDocument is an in-memory Document for tests.
type memDocument struct {
	name string
	data []byte
	err  error
}

func (d memDocument) Name() string { return d.name }

func (d memDocument) Bytes() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

// recorder collects callback invocations in order.
type recorder struct {
	mu      sync.Mutex
	content []string
	status  []string
	errs    []error
	closes  []closeEvent
	opened  bool
	done    chan struct{}
}

type closeEvent struct {
	code  int
	clean bool
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnOpen: func() {
			r.mu.Lock()
			r.opened = true
			r.mu.Unlock()
		},
		OnContent: func(text string) {
			r.mu.Lock()
			r.content = append(r.content, text)
			r.mu.Unlock()
		},
		OnStatus: func(line string) {
			r.mu.Lock()
			r.status = append(r.status, line)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnClose: func(code int, clean bool) {
			r.mu.Lock()
			r.closes = append(r.closes, closeEvent{code, clean})
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for close callback")
	}
}

var upgrader = websocket.Upgrader{}

// newSolverServer starts a test server that upgrades to WebSocket and hands
// the connection to fn. Returns the ws:// URL.
func newSolverServer(t *testing.T, fn func(t *testing.T, conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		fn(t, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readHandshake consumes the auth and payload frames, returning the token
// and document bytes.
func readHandshake(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Errorf("read auth frame: %v", err)
		return "", nil
	}
	if msgType != websocket.TextMessage {
		t.Errorf("auth frame type = %d, want text", msgType)
	}
	var env struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Errorf("auth frame not JSON: %v", err)
	}

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Errorf("read payload frame: %v", err)
		return env.Token, nil
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("payload frame type = %d, want binary", msgType)
	}
	return env.Token, payload
}

func TestOpenFailsFastOnMissingInputs(t *testing.T) {
	doc := memDocument{name: "paper.pdf", data: []byte("x")}
	opts := Options{URL: "ws://localhost:1/ws"}

	tests := []struct {
		name       string
		doc        Document
		credential string
		opts       Options
	}{
		{"nil document", nil, "tok", opts},
		{"empty credential", doc, "", opts},
		{"empty url", doc, "tok", Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(context.Background(), tt.opts, tt.doc, tt.credential, Callbacks{})
			if c != nil {
				t.Error("expected nil client")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("err = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestHandshakeAndStreaming(t *testing.T) {
	payload := []byte("%PDF-1.4 question paper bytes")
	gotToken := make(chan string, 1)
	gotPayload := make(chan []byte, 1)

	url := newSolverServer(t, func(t *testing.T, conn *websocket.Conn) {
		token, data := readHandshake(t, conn)
		gotToken <- token
		gotPayload <- data

		frames := []string{
			"[INFO] connection established",
			"[INFO] extraction complete",
			"# Solution\n",
			"Step one.",
			"[DEBUG] tokens used: 412",
			" Step two.",
			"**Processing complete.**",
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Client closes after the marker; drain until then.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	rec := newRecorder()
	doc := memDocument{name: "paper.pdf", data: payload}
	_, err := Open(context.Background(), Options{URL: url, CloseDelay: 10 * time.Millisecond}, doc, "secret-token", rec.callbacks())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec.wait(t)

	if token := <-gotToken; token != "secret-token" {
		t.Errorf("server saw token %q, want %q", token, "secret-token")
	}
	if data := <-gotPayload; string(data) != string(payload) {
		t.Errorf("server saw payload %q", data)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.opened {
		t.Error("OnOpen never fired")
	}
	wantContent := []string{"# Solution\n", "Step one.", " Step two."}
	if len(rec.content) != len(wantContent) {
		t.Fatalf("content = %q, want %q", rec.content, wantContent)
	}
	for i := range wantContent {
		if rec.content[i] != wantContent[i] {
			t.Errorf("content[%d] = %q, want %q", i, rec.content[i], wantContent[i])
		}
	}
	wantStatus := []string{
		"[INFO] connection established",
		"[INFO] extraction complete",
		"[DEBUG] tokens used: 412",
		"[INFO] Processing complete.",
	}
	if len(rec.status) != len(wantStatus) {
		t.Fatalf("status = %q, want %q", rec.status, wantStatus)
	}
	for i := range wantStatus {
		if rec.status[i] != wantStatus[i] {
			t.Errorf("status[%d] = %q, want %q", i, rec.status[i], wantStatus[i])
		}
	}
	if len(rec.closes) != 1 {
		t.Fatalf("closes = %v, want exactly one", rec.closes)
	}
	if !rec.closes[0].clean || rec.closes[0].code != websocket.CloseNormalClosure {
		t.Errorf("close = %+v, want clean normal closure", rec.closes[0])
	}
	if len(rec.errs) != 0 {
		t.Errorf("unexpected errors: %v", rec.errs)
	}
}

func TestStatusFramesNeverReachContent(t *testing.T) {
	url := newSolverServer(t, func(t *testing.T, conn *websocket.Conn) {
		readHandshake(t, conn)
		frames := []string{"[INFO] a", "body", "[WARNING] b", "[ERROR] c"}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	rec := newRecorder()
	doc := memDocument{name: "q.pdf", data: []byte("bytes")}
	if _, err := Open(context.Background(), Options{URL: url}, doc, "tok", rec.callbacks()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, c := range rec.content {
		if Classify(c) == FrameStatus {
			t.Errorf("status frame leaked into content: %q", c)
		}
	}
	if len(rec.content) != 1 || rec.content[0] != "body" {
		t.Errorf("content = %q, want [\"body\"]", rec.content)
	}
}

func TestPayloadReadErrorClosesAbnormally(t *testing.T) {
	url := newSolverServer(t, func(t *testing.T, conn *websocket.Conn) {
		// Auth arrives, then the client aborts before sending the payload.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	rec := newRecorder()
	doc := memDocument{name: "gone.pdf", err: errors.New("file moved")}
	if _, err := Open(context.Background(), Options{URL: url}, doc, "tok", rec.callbacks()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 {
		t.Fatalf("errs = %v, want one", rec.errs)
	}
	var prErr *PayloadReadError
	if !errors.As(rec.errs[0], &prErr) {
		t.Errorf("err = %v, want PayloadReadError", rec.errs[0])
	}
	if len(rec.closes) != 1 || rec.closes[0].clean {
		t.Errorf("closes = %v, want one abnormal", rec.closes)
	}
}

func TestDialFailureReportsTransportError(t *testing.T) {
	rec := newRecorder()
	doc := memDocument{name: "q.pdf", data: []byte("x")}
	opts := Options{URL: "ws://127.0.0.1:1/ws", HandshakeTimeout: 500 * time.Millisecond}
	if _, err := Open(context.Background(), opts, doc, "tok", rec.callbacks()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 {
		t.Fatalf("errs = %v, want one", rec.errs)
	}
	var trErr *TransportError
	if !errors.As(rec.errs[0], &trErr) {
		t.Errorf("err = %v, want TransportError", rec.errs[0])
	}
	if len(rec.closes) != 1 || rec.closes[0].clean {
		t.Errorf("closes = %v, want one abnormal", rec.closes)
	}
}

func TestCancelDispatchesCancellationCode(t *testing.T) {
	started := make(chan struct{})
	url := newSolverServer(t, func(t *testing.T, conn *websocket.Conn) {
		readHandshake(t, conn)
		close(started)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	rec := newRecorder()
	doc := memDocument{name: "q.pdf", data: []byte("x")}
	c, err := Open(context.Background(), Options{URL: url}, doc, "tok", rec.callbacks())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw handshake")
	}

	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// A second cancel must be a no-op.
	if err := c.Cancel(); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.closes) != 1 {
		t.Fatalf("closes = %v, want exactly one", rec.closes)
	}
	if rec.closes[0].code != CloseCancelled || rec.closes[0].clean {
		t.Errorf("close = %+v, want code %d abnormal", rec.closes[0], CloseCancelled)
	}
}

func TestServerCleanClose(t *testing.T) {
	url := newSolverServer(t, func(t *testing.T, conn *websocket.Conn) {
		readHandshake(t, conn)
		conn.WriteMessage(websocket.TextMessage, []byte("partial answer"))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	})

	rec := newRecorder()
	doc := memDocument{name: "q.pdf", data: []byte("x")}
	if _, err := Open(context.Background(), Options{URL: url}, doc, "tok", rec.callbacks()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.closes) != 1 {
		t.Fatalf("closes = %v, want one", rec.closes)
	}
	if !rec.closes[0].clean || rec.closes[0].code != websocket.CloseNormalClosure {
		t.Errorf("close = %+v, want clean normal closure", rec.closes[0])
	}
}
