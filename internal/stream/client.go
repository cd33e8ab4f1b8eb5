// Package stream implements the solver wire protocol client: one WebSocket
// connection per solve attempt, an inline auth handshake, a single binary
// document upload, and classification of the inbound frame stream into
// status lines and incremental solution content.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CloseCancelled is the application close code for user-initiated
// cancellation, distinguishing it from network failure.
const CloseCancelled = 4001

// defaultCloseDelay is how long the client waits after seeing the completion
// marker before closing, so in-flight frames can still arrive.
const defaultCloseDelay = 250 * time.Millisecond

// Document is the payload of one solve attempt: a named, readable byte source.
type Document interface {
	Name() string
	Bytes() ([]byte, error)
}

// FileDocument is a Document backed by a file on disk.
type FileDocument struct {
	Path string
}

func (d FileDocument) Name() string { return filepath.Base(d.Path) }

func (d FileDocument) Bytes() ([]byte, error) { return os.ReadFile(d.Path) }

// Callbacks receive protocol events. Content and status callbacks are
// invoked sequentially in frame arrival order; nil fields are skipped.
type Callbacks struct {
	// OnOpen fires once when the transport connection is established,
	// before the handshake frames are sent.
	OnOpen func()

	// OnContent receives the text of each content frame.
	OnContent func(text string)

	// OnStatus receives each status line verbatim, including the synthesized
	// "[INFO] Processing complete." line for the completion marker.
	OnStatus func(line string)

	// OnError receives transport and payload errors. The client does not
	// retry; retry policy belongs to the caller.
	OnError func(err error)

	// OnClose fires exactly once per client, for any closure, with the close
	// code and whether the closure was clean.
	OnClose func(code int, clean bool)
}

// Options configures a single connection.
type Options struct {
	// URL is the solver WebSocket endpoint.
	URL string

	// HandshakeTimeout bounds the dial. Default 10s.
	HandshakeTimeout time.Duration

	// CloseDelay is the wait between seeing the completion marker and
	// closing the connection. Default 250ms.
	CloseDelay time.Duration

	Logger zerolog.Logger
}

// authEnvelope is the first text frame sent on every connection.
type authEnvelope struct {
	Token string `json:"token"`
}

// Client drives one connection for one solve attempt. It holds no UI or
// credit state; construct a new Client for every attempt.
type Client struct {
	opts   Options
	doc    Document
	cb     Callbacks
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	closed    bool
	localCode int

	closeOnce sync.Once
}

// Open validates inputs synchronously, then starts the connection
// asynchronously. A nil document or empty credential fails immediately with
// ConfigurationError and no connection is attempted.
func Open(ctx context.Context, opts Options, doc Document, credential string, cb Callbacks) (*Client, error) {
	if doc == nil {
		return nil, &ConfigurationError{Reason: "no document selected"}
	}
	if credential == "" {
		return nil, &ConfigurationError{Reason: "missing credential"}
	}
	if opts.URL == "" {
		return nil, &ConfigurationError{Reason: "missing solver endpoint"}
	}
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.CloseDelay == 0 {
		opts.CloseDelay = defaultCloseDelay
	}

	c := &Client{
		opts:   opts,
		doc:    doc,
		cb:     cb,
		logger: opts.Logger.With().Str("component", "stream").Str("doc", doc.Name()).Logger(),
	}

	go c.run(ctx, credential)
	return c, nil
}

// run dials, performs the handshake, and enters the read loop. All callback
// dispatch happens on this goroutine, preserving frame arrival order.
func (c *Client) run(ctx context.Context, credential string) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}

	c.logger.Debug().Str("url", c.opts.URL).Msg("dialing solver")
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		c.emitError(&TransportError{Op: "dial", Err: err})
		c.dispatchClose(websocket.CloseAbnormalClosure, false)
		return
	}

	c.mu.Lock()
	if c.closed {
		// Cancelled while dialing; the close was already dispatched.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	if c.cb.OnOpen != nil {
		c.cb.OnOpen()
	}

	// Auth frame must precede any binary data.
	auth, err := json.Marshal(authEnvelope{Token: credential})
	if err != nil {
		c.emitError(&TransportError{Op: "handshake", Err: err})
		c.teardown(websocket.CloseInternalServerErr)
		return
	}
	if err := c.write(websocket.TextMessage, auth); err != nil {
		c.emitError(&TransportError{Op: "handshake", Err: err})
		c.teardown(websocket.CloseAbnormalClosure)
		return
	}

	data, err := c.doc.Bytes()
	if err != nil {
		c.emitError(&PayloadReadError{Name: c.doc.Name(), Err: err})
		c.teardown(websocket.CloseInternalServerErr)
		return
	}
	if err := c.write(websocket.BinaryMessage, data); err != nil {
		c.emitError(&TransportError{Op: "upload", Err: err})
		c.teardown(websocket.CloseAbnormalClosure)
		return
	}
	c.logger.Debug().Int("bytes", len(data)).Msg("document sent")

	c.readLoop(conn)
}

// readLoop processes inbound frames until the connection ends.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadErr(err)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			c.handleText(string(data))
		case websocket.BinaryMessage:
			// Binary inbound frames are not part of the protocol.
			c.logger.Warn().Int("bytes", len(data)).Msg("ignoring unexpected binary frame")
		}
	}
}

func (c *Client) handleReadErr(err error) {
	c.mu.Lock()
	closed, localCode := c.closed, c.localCode
	c.mu.Unlock()

	if closed {
		// We initiated the close; report the code we closed with.
		c.dispatchClose(localCode, localCode == websocket.CloseNormalClosure)
		return
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		c.dispatchClose(ce.Code, ce.Code == websocket.CloseNormalClosure)
		return
	}

	c.emitError(&TransportError{Op: "read", Err: err})
	c.dispatchClose(websocket.CloseAbnormalClosure, false)
}

func (c *Client) handleText(text string) {
	switch Classify(text) {
	case FrameStatus:
		if c.cb.OnStatus != nil {
			c.cb.OnStatus(text)
		}
	case FrameCompletion:
		if c.cb.OnStatus != nil {
			c.cb.OnStatus("[INFO] Processing complete.")
		}
		// Brief delay so any in-flight frames still arrive before we close.
		time.AfterFunc(c.opts.CloseDelay, func() {
			c.teardown(websocket.CloseNormalClosure)
		})
	case FrameContent:
		if c.cb.OnContent != nil {
			c.cb.OnContent(text)
		}
	}
}

// write sends one frame. Fails fast once the client is closed.
func (c *Client) write(msgType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		return errors.New("connection closed")
	}
	return c.conn.WriteMessage(msgType, data)
}

// Close initiates a graceful shutdown with the normal closure code.
func (c *Client) Close() error {
	return c.teardown(websocket.CloseNormalClosure)
}

// Cancel tears the connection down with the cancellation close code.
func (c *Client) Cancel() error {
	return c.teardown(CloseCancelled)
}

// teardown closes the connection with the given code. Safe to call from any
// goroutine and more than once; only the first call has any effect.
func (c *Client) teardown(code int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.localCode = code
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		// Closed before the dial finished; there is no socket to wait on.
		c.dispatchClose(code, code == websocket.CloseNormalClosure)
		return nil
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
	err := conn.Close()

	// The read loop also dispatches when its read fails, but teardown can run
	// before the loop starts (handshake or upload failure); dispatch here so
	// OnClose fires on those paths too. closeOnce keeps it to one call.
	c.dispatchClose(code, code == websocket.CloseNormalClosure)
	return err
}

// dispatchClose invokes OnClose exactly once, even when several underlying
// close or error events fire.
func (c *Client) dispatchClose(code int, clean bool) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.conn = nil
		c.mu.Unlock()

		c.logger.Debug().Int("code", code).Bool("clean", clean).Msg("connection closed")
		if c.cb.OnClose != nil {
			c.cb.OnClose(code, clean)
		}
	})
}

func (c *Client) emitError(err error) {
	c.logger.Debug().Err(err).Msg("stream error")
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	}
}
