package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/inputs"
	"github.com/vango-dev/sliderbind/pkg/jslider"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

// InputHandler is called on the session's event loop for every value the
// binder relays.
type InputHandler func(s *Session, id string, v binding.Value)

// Session is one WebSocket connection and the page it displays.
type Session struct {
	ID        string
	CreatedAt time.Time

	server *Server
	conn   *websocket.Conn
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	out      chan []byte
	dispatch chan func()
	flush    chan struct{}
	done     chan struct{}

	closeOnce  sync.Once
	closed     atomic.Bool
	lastActive atomic.Int64

	values        *inputs.Values
	binder        *inputs.Binder
	cancelObserve func()

	// Owned by the event loop.
	doc *dom.Document

	mu      sync.Mutex
	page    string
	pending map[string]binding.Value
	states  map[string]binding.State
}

func newSession(srv *Server, conn *websocket.Conn) *Session {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		server:    srv,
		conn:      conn,
		logger:    srv.logger.With("session_id", id),
		ctx:       ctx,
		cancel:    cancel,
		out:       make(chan []byte, srv.config.SendQueueSize),
		dispatch:  make(chan func(), srv.config.DispatchQueueSize),
		flush:     make(chan struct{}, 1),
		done:      make(chan struct{}),
		values:    inputs.NewValues(),
		pending:   make(map[string]binding.Value),
		states:    make(map[string]binding.State),
	}
	s.binder = inputs.NewBinder(srv.registry, s.values,
		inputs.WithLogger(s.logger),
		inputs.WithClock(srv.clock),
	)
	s.cancelObserve = s.values.Observe("", s.onValue)
	s.touch()
	return s
}

// Context is canceled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Page returns the name of the page the session displays.
func (s *Session) Page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// LastActive returns when the client last sent a message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Values returns the store of relayed input values.
func (s *Session) Values() *inputs.Values {
	return s.values
}

// Value returns the last relayed value of an input.
func (s *Session) Value(id string) (binding.Value, bool) {
	return s.values.Get(id)
}

// States returns the widget state of every bound input as of the last
// handled message.
func (s *Session) States() map[string]binding.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]binding.State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// Snapshot captures the session's widget states and relayed values.
func (s *Session) Snapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		SessionID: s.ID,
		Page:      s.Page(),
		TakenAt:   time.Now().UTC(),
		States:    s.States(),
		Values:    s.values.Snapshot(),
	}
}

// Dispatch queues fn to run on the session's event loop.
func (s *Session) Dispatch(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.dispatch <- fn:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		s.logger.Warn("dispatch queue full")
		return ErrDispatchQueueFull
	}
}

// SendInputMessage applies msg to the input bound under id, the way the
// server side of an application updates a widget. It returns once the
// message is queued; delivery failures are logged and reported to the
// client.
func (s *Session) SendInputMessage(id string, msg binding.Message) error {
	return s.Dispatch(func() {
		if err := s.deliver(id, msg); err != nil {
			s.logger.Warn("input message not delivered", "input", id, "error", err)
			s.sendError(err)
		}
	})
}

// Close closes the connection and stops the session loops. The binder is
// released by the event loop on its way out.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.cancel()
		s.cancelObserve()
		if s.conn != nil {
			s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			s.conn.Close()
		}
	})
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// handleMessage runs on the event loop.
func (s *Session) handleMessage(msg *protocol.ClientMessage) {
	_, span := s.startMessageSpan(msg)
	start := time.Now()

	var err error
	switch msg.Type {
	case protocol.TypeInit:
		err = s.initPage(msg.Page)
	case protocol.TypeDrag:
		err = s.drag(msg.ID, msg.Value)
	case protocol.TypeAnimate:
		err = s.animate(msg.ID, msg.On)
	case protocol.TypePing:
		s.send(protocol.Pong())
	}

	s.server.metrics.messageDuration.WithLabelValues(string(msg.Type)).Observe(time.Since(start).Seconds())
	endSpan(span, err)
	if err != nil {
		s.logger.Warn("message failed", "type", msg.Type, "input", msg.ID, "error", err)
		s.sendError(err)
	}
}

func (s *Session) initPage(name string) error {
	if name == "" {
		name = s.server.config.DefaultPage
	}
	page, ok := s.server.page(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPageNotFound, name)
	}

	if s.doc != nil {
		s.binder.Close()
		s.doc = nil
		s.mu.Lock()
		s.states = make(map[string]binding.State)
		s.mu.Unlock()
	}
	doc := dom.NewDocument()
	jslider.Install(doc)
	if page.Build != nil {
		if err := page.Build(doc); err != nil {
			return NewSessionError(s.ID, "build page "+name, err)
		}
	}
	s.doc = doc

	s.mu.Lock()
	s.page = name
	s.mu.Unlock()

	n, err := s.binder.Bind(doc.Root())
	if err != nil {
		// Inputs that failed stay unbound; the rest of the page works.
		s.logger.Warn("some inputs were not bound", "page", name, "error", err)
	}
	s.server.metrics.inputsBound.Add(float64(n))
	s.logger.Info("page initialized", "page", name, "inputs", n)

	if err := s.sendRender(); err != nil {
		return err
	}
	s.refreshStates()
	s.send(protocol.State(s.States()))
	return nil
}

func (s *Session) drag(id, raw string) error {
	w, err := s.widget(id)
	if err != nil {
		return err
	}
	w.Drag(jslider.ParseValue(raw)...)
	s.refreshState(id)
	return nil
}

func (s *Session) animate(id string, on bool) error {
	if s.doc == nil {
		return ErrNotInitialized
	}
	el, ok := s.binder.Element(id)
	if !ok {
		return fmt.Errorf("%w: %q", inputs.ErrInputNotFound, id)
	}
	el.SetData("animating", on)
	return nil
}

func (s *Session) deliver(id string, msg binding.Message) error {
	if s.doc == nil {
		return ErrNotInitialized
	}
	if err := s.binder.Deliver(id, msg); err != nil {
		return err
	}
	s.refreshState(id)
	if err := s.sendRender(); err != nil {
		return err
	}
	st, _ := s.binder.State(id)
	s.send(protocol.State(map[string]binding.State{id: st}))
	return nil
}

func (s *Session) widget(id string) (*jslider.Slider, error) {
	if s.doc == nil {
		return nil, ErrNotInitialized
	}
	el, ok := s.binder.Element(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", inputs.ErrInputNotFound, id)
	}
	w := jslider.Of(el)
	if w == nil {
		return nil, fmt.Errorf("%w: %q is not a slider", inputs.ErrInputNotFound, id)
	}
	return w, nil
}

func (s *Session) refreshStates() {
	states := s.binder.States()
	s.mu.Lock()
	s.states = states
	s.mu.Unlock()
}

func (s *Session) refreshState(id string) {
	st, ok := s.binder.State(id)
	if !ok {
		return
	}
	s.mu.Lock()
	s.states[id] = st
	s.mu.Unlock()
}

func (s *Session) sendRender() error {
	var buf bytes.Buffer
	if err := s.server.renderer.RenderChildren(&buf, s.doc.Root()); err != nil {
		return NewSessionError(s.ID, "render", err)
	}
	s.send(protocol.Render(buf.String()))
	return nil
}

// onValue is the Values observer. It runs on whatever goroutine delivered
// the value: the event loop for immediate values, a timer for debounced
// ones. Pending values are flushed by the event loop; the flush signal does
// not go through the dispatch queue, so a full queue delays values but
// never loses the latest one.
func (s *Session) onValue(id string, v binding.Value) {
	s.server.metrics.valuesRelayed.Inc()

	s.mu.Lock()
	s.pending[id] = v
	s.mu.Unlock()
	select {
	case s.flush <- struct{}{}:
	default:
	}

	if len(s.server.handlers) > 0 {
		err := s.Dispatch(func() {
			for _, h := range s.server.handlers {
				s.runHandler(id, func() { h(s, id, v) })
			}
		})
		if err != nil && err != ErrSessionClosed {
			s.logger.Warn("input handlers skipped", "input", id, "error", err)
		}
	}
}

func (s *Session) flushValues() {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]binding.Value)
	s.mu.Unlock()
	if len(batch) > 0 {
		s.send(protocol.Values(batch))
	}
}

// runHandler runs fn and recovers a panic into a logged HandlerError.
func (s *Session) runHandler(input string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			herr := &HandlerError{SessionID: s.ID, Input: input, Panic: r, Stack: debug.Stack()}
			s.server.metrics.handlerPanics.Inc()
			s.logger.Error("handler panic", "input", input, "panic", r, "stack", string(herr.Stack))
			s.send(protocol.Error(protocol.ErrHandlerPanic, "%s", herr.Error()))
		}
	}()
	fn()
}

func (s *Session) send(m *protocol.ServerMessage) {
	data, err := m.Encode()
	if err != nil {
		s.logger.Error("encode message", "type", m.Type, "error", err)
		return
	}
	select {
	case s.out <- data:
		s.server.metrics.messagesSent.WithLabelValues(string(m.Type)).Inc()
	case <-s.done:
	default:
		s.server.metrics.messagesDropped.Inc()
		s.logger.Warn("send queue full, dropping message", "type", m.Type)
	}
}

func (s *Session) sendError(err error) {
	code := errorCode(err)
	s.server.metrics.errors.WithLabelValues(code.String()).Inc()
	s.send(protocol.Error(code, "%s", err.Error()))
}

func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, protocol.ErrMalformedMessage),
		errors.Is(err, protocol.ErrUnknownType),
		errors.Is(err, protocol.ErrMessageTooLarge):
		return protocol.ErrInvalidMessage
	case errors.Is(err, inputs.ErrInputNotFound):
		return protocol.ErrInputNotFound
	case errors.Is(err, ErrPageNotFound):
		return protocol.ErrPageNotFound
	case errors.Is(err, ErrNotInitialized):
		return protocol.ErrNotInitialized
	default:
		return protocol.ErrServerError
	}
}
