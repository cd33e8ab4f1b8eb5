// Package solve orchestrates one solve attempt at a time: it drives the
// stream client, folds transport events into an explicit state machine,
// accumulates the solution text, and owns the optimistic credit debit and
// its exactly-once reconciliation.
package solve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/stream"
)

// contentLeadIn is prepended once before the first content chunk of an
// attempt. Inherited display behavior; kept so rendered output is stable.
const contentLeadIn = "\n\n\n"

// Conn is the slice of the stream client the controller needs.
type Conn interface {
	Cancel() error
	Close() error
}

// Dialer opens a connection for one attempt. Swappable in tests.
type Dialer func(ctx context.Context, doc stream.Document, credential string, cb stream.Callbacks) (Conn, error)

// Recorder persists finished attempts. Optional.
type Recorder interface {
	RecordAttempt(ctx context.Context, rec Record) error
}

// Record describes one finished attempt for the history store.
type Record struct {
	ID           string
	FileName     string
	Phase        string
	CreditsUsed  int
	ContentBytes int
	ErrorDetail  string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Update is a point-in-time snapshot of the active attempt, suitable for
// rendering. Content grows append-only; Status is last-writer-wins.
type Update struct {
	AttemptID string
	FileName  string
	Phase     Phase
	Content   string
	Status    string
	Err       error
	Balance   int
}

// Options configures a Controller.
type Options struct {
	// SolveURL is the solver WebSocket endpoint.
	SolveURL string

	// Cost is the credit price per attempt.
	Cost int

	// HandshakeTimeout and CloseDelay are passed through to the stream client.
	HandshakeTimeout time.Duration
	CloseDelay       time.Duration

	// Timeout bounds one attempt end to end. When it elapses before a
	// terminal phase is reached the attempt fails and its credits are
	// refunded. Zero disables the deadline.
	Timeout time.Duration

	Logger zerolog.Logger
}

// Controller runs at most one solve attempt at a time against a shared
// session balance. Not tied to any UI; callers observe state through the
// notify callback and Snapshot.
type Controller struct {
	opts     Options
	sess     *session.Session
	dial     Dialer
	notify   func(Update)
	recorder Recorder
	logger   zerolog.Logger

	mu  sync.Mutex
	cur *attempt
}

// attempt is the internal state of one solve attempt.
type attempt struct {
	id         string
	fileName   string
	conn       Conn
	phase      Phase
	content    strings.Builder
	status     string
	err        error
	reserved   int
	reconciled bool
	startedAt  time.Time
	deadline   *time.Timer
}

// New creates a Controller. notify receives a snapshot after every state
// change; it must not call back into the Controller.
func New(opts Options, sess *session.Session, notify func(Update)) *Controller {
	c := &Controller{
		opts:   opts,
		sess:   sess,
		notify: notify,
		logger: opts.Logger.With().Str("component", "solve").Logger(),
	}
	c.dial = func(ctx context.Context, doc stream.Document, credential string, cb stream.Callbacks) (Conn, error) {
		return stream.Open(ctx, stream.Options{
			URL:              opts.SolveURL,
			HandshakeTimeout: opts.HandshakeTimeout,
			CloseDelay:       opts.CloseDelay,
			Logger:           opts.Logger,
		}, doc, credential, cb)
	}
	return c
}

// SetRecorder wires a history store. Finished attempts are recorded
// best-effort; persistence failures never affect attempt state.
func (c *Controller) SetRecorder(r Recorder) {
	c.recorder = r
}

// Start begins a new attempt for doc. A prior in-flight attempt is cancelled
// first (its credits refunded). Fails synchronously, with nothing debited
// and no connection opened, when the credential is missing or the balance
// cannot cover the cost.
func (c *Controller) Start(ctx context.Context, doc stream.Document) error {
	credential := c.sess.Credential()

	c.mu.Lock()
	var priorConn Conn
	if c.cur != nil && !c.cur.phase.Terminal() {
		priorConn = c.cur.conn
		c.cur.status = "Cancelled"
		c.enterTerminalLocked(c.cur, PhaseCancelled, nil)
	}

	if doc == nil {
		c.mu.Unlock()
		c.cancelConn(priorConn)
		return &stream.ConfigurationError{Reason: "no document selected"}
	}
	if credential == "" {
		c.mu.Unlock()
		c.cancelConn(priorConn)
		return &stream.ConfigurationError{Reason: "not signed in"}
	}
	if balance := c.sess.Balance(); balance < c.opts.Cost {
		c.mu.Unlock()
		c.cancelConn(priorConn)
		return &InsufficientCreditsError{Balance: balance, Cost: c.opts.Cost}
	}

	// Optimistic debit. Reconciled exactly once at the terminal transition.
	c.sess.Debit(c.opts.Cost)

	a := &attempt{
		id:        uuid.New().String(),
		fileName:  doc.Name(),
		phase:     PhaseConnecting,
		status:    "Connecting…",
		reserved:  c.opts.Cost,
		startedAt: time.Now(),
	}
	c.cur = a
	if c.opts.Timeout > 0 {
		id := a.id
		a.deadline = time.AfterFunc(c.opts.Timeout, func() { c.expire(id) })
	}
	snap := c.snapshotLocked(a)
	c.mu.Unlock()

	c.cancelConn(priorConn)
	c.emit(snap)

	conn, err := c.dial(ctx, doc, credential, c.adapters(a.id))
	if err != nil {
		c.mu.Lock()
		if c.cur != nil && c.cur.id == a.id {
			c.cur.status = "Error: could not start attempt"
			c.enterTerminalLocked(c.cur, PhaseFailed, err)
			snap = c.snapshotLocked(c.cur)
			c.mu.Unlock()
			c.emit(snap)
		} else {
			c.mu.Unlock()
		}
		return err
	}

	c.mu.Lock()
	if c.cur != nil && c.cur.id == a.id && !c.cur.phase.Terminal() {
		c.cur.conn = conn
		c.mu.Unlock()
	} else {
		// Replaced or finished while dialing; discard the new connection.
		c.mu.Unlock()
		c.cancelConn(conn)
	}
	return nil
}

// Cancel aborts the in-flight attempt, refunds its credits, and enters the
// Cancelled phase. No-op when nothing is in flight.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.cur == nil || c.cur.phase.Terminal() {
		c.mu.Unlock()
		return
	}
	conn := c.cur.conn
	c.cur.status = "Cancelled"
	c.enterTerminalLocked(c.cur, PhaseCancelled, nil)
	snap := c.snapshotLocked(c.cur)
	c.mu.Unlock()

	c.cancelConn(conn)
	c.emit(snap)
}

// Clear cancels anything in flight and resets to the idle state, ready for
// a brand-new attempt.
func (c *Controller) Clear() {
	c.Cancel()

	c.mu.Lock()
	c.cur = nil
	snap := Update{Phase: PhaseIdle, Balance: c.sess.Balance()}
	c.mu.Unlock()
	c.emit(snap)
}

// Snapshot returns the current attempt state.
func (c *Controller) Snapshot() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Update{Phase: PhaseIdle, Balance: c.sess.Balance()}
	}
	return c.snapshotLocked(c.cur)
}

// adapters builds the stream callbacks for one attempt. Each callback only
// translates the transport event into a typed Event bound to the attempt id,
// so late callbacks from a replaced connection are dropped in dispatch.
func (c *Controller) adapters(id string) stream.Callbacks {
	return stream.Callbacks{
		OnOpen:    func() { c.dispatch(id, Opened{}) },
		OnContent: func(text string) { c.dispatch(id, Content{Text: text}) },
		OnStatus:  func(line string) { c.dispatch(id, Status{Line: line}) },
		OnError:   func(err error) { c.dispatch(id, Failure{Err: err}) },
		OnClose:   func(code int, clean bool) { c.dispatch(id, Closed{Code: code, Clean: clean}) },
	}
}

// dispatch is the single entry point of the state machine. Events for
// attempts other than the current one, and events after a terminal
// transition, change nothing.
func (c *Controller) dispatch(id string, ev Event) {
	c.mu.Lock()
	a := c.cur
	if a == nil || a.id != id {
		c.mu.Unlock()
		c.logger.Debug().Str("attempt", id).Msg("dropping event from replaced attempt")
		return
	}
	if a.phase.Terminal() {
		c.mu.Unlock()
		return
	}

	changed := true
	switch ev := ev.(type) {
	case Opened:
		if a.phase == PhaseConnecting {
			a.phase = PhaseStreaming
			a.status = "Connected, uploading document…"
		}

	case Content:
		if a.phase != PhaseStreaming {
			changed = false
			break
		}
		if a.content.Len() == 0 {
			a.content.WriteString(contentLeadIn)
		}
		a.content.WriteString(ev.Text)

	case Status:
		if stream.IsErrorStatus(ev.Line) {
			a.status = "Error: " + errorDetail(ev.Line)
			c.enterTerminalLocked(a, PhaseFailed, &ServerError{Detail: errorDetail(ev.Line)})
			break
		}
		phrase, ok := MapStatus(ev.Line)
		if !ok {
			c.logger.Debug().Str("line", ev.Line).Msg("unmapped status line")
			changed = false
			break
		}
		a.status = phrase

	case Failure:
		a.status = "Error: connection problem, please try again"
		c.enterTerminalLocked(a, PhaseFailed, ev.Err)

	case Closed:
		switch {
		case ev.Code == stream.CloseCancelled:
			a.status = "Cancelled"
			c.enterTerminalLocked(a, PhaseCancelled, nil)
		case ev.Clean && a.content.Len() > 0:
			a.status = "Solution complete"
			c.enterTerminalLocked(a, PhaseCompleted, nil)
		case ev.Clean:
			a.status = "Error: no content received"
			c.enterTerminalLocked(a, PhaseFailed, &EmptyCompletionError{})
		default:
			a.status = "Error: connection lost"
			c.enterTerminalLocked(a, PhaseFailed, &stream.TransportError{
				Op:  "close",
				Err: fmt.Errorf("abnormal closure (code %d)", ev.Code),
			})
		}
	}

	var snap Update
	if changed {
		snap = c.snapshotLocked(a)
	}
	c.mu.Unlock()

	if changed {
		c.emit(snap)
	}
}

// expire fires when the attempt deadline elapses. Attempts that already
// reached a terminal phase, or were replaced, are left alone.
func (c *Controller) expire(id string) {
	c.mu.Lock()
	a := c.cur
	if a == nil || a.id != id || a.phase.Terminal() {
		c.mu.Unlock()
		return
	}
	conn := a.conn
	a.status = "Error: attempt timed out"
	c.enterTerminalLocked(a, PhaseFailed, &AttemptTimeoutError{After: c.opts.Timeout})
	snap := c.snapshotLocked(a)
	c.mu.Unlock()

	c.cancelConn(conn)
	c.emit(snap)
}

// enterTerminalLocked performs the terminal transition and the exactly-once
// credit reconciliation: the debit stands on completion, everything else is
// refunded with the amount reserved for this attempt, never the live cost.
func (c *Controller) enterTerminalLocked(a *attempt, phase Phase, err error) {
	a.phase = phase
	if err != nil && a.err == nil {
		a.err = err
	}
	if a.deadline != nil {
		a.deadline.Stop()
	}

	if !a.reconciled {
		a.reconciled = true
		if phase != PhaseCompleted {
			c.sess.Credit(a.reserved)
		}
	}

	c.logger.Info().
		Str("attempt", a.id).
		Str("phase", phase.String()).
		Int("balance", c.sess.Balance()).
		Msg("attempt finished")

	if c.recorder != nil {
		rec := Record{
			ID:           a.id,
			FileName:     a.fileName,
			Phase:        phase.String(),
			ContentBytes: a.content.Len(),
			StartedAt:    a.startedAt,
			FinishedAt:   time.Now(),
		}
		if phase == PhaseCompleted {
			rec.CreditsUsed = a.reserved
		}
		if a.err != nil {
			rec.ErrorDetail = a.err.Error()
		}
		go func() {
			if recErr := c.recorder.RecordAttempt(context.Background(), rec); recErr != nil {
				c.logger.Warn().Err(recErr).Msg("failed to record attempt")
			}
		}()
	}
}

func (c *Controller) snapshotLocked(a *attempt) Update {
	return Update{
		AttemptID: a.id,
		FileName:  a.fileName,
		Phase:     a.phase,
		Content:   a.content.String(),
		Status:    a.status,
		Err:       a.err,
		Balance:   c.sess.Balance(),
	}
}

func (c *Controller) emit(u Update) {
	if c.notify != nil {
		c.notify(u)
	}
}

func (c *Controller) cancelConn(conn Conn) {
	if conn != nil {
		_ = conn.Cancel()
	}
}
