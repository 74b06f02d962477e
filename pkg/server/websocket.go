package server

import (
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/sliderbind/pkg/protocol"
)

// Start starts the session loops.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
	go s.EventLoop()
}

// ReadLoop reads and decodes client messages and queues them on the event
// loop. It closes the session when the connection fails.
func (s *Session) ReadLoop() {
	defer s.server.sessions.Close(s.ID)

	s.conn.SetReadLimit(2 * protocol.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))
	})

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && !s.IsClosed() {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			s.logger.Warn("message decode error", "error", err)
			s.sendError(err)
			continue
		}
		s.server.metrics.messagesReceived.WithLabelValues(string(msg.Type)).Inc()

		if err := s.Dispatch(func() { s.handleMessage(msg) }); err != nil {
			if err == ErrSessionClosed {
				return
			}
			s.sendError(NewSessionError(s.ID, "queue "+string(msg.Type), err))
		}
	}
}

// WriteLoop writes queued messages and heartbeat pings. Only this goroutine
// writes data frames to the connection.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.server.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !s.IsClosed() {
					s.logger.Error("write error", "error", err)
				}
				s.server.sessions.Close(s.ID)
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.server.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.server.sessions.Close(s.ID)
				return
			}

		case <-s.done:
			return
		}
	}
}

// EventLoop runs dispatched functions one at a time. It owns the session's
// document and binder, and releases the binder when the session closes.
func (s *Session) EventLoop() {
	defer s.binder.Close()

	for {
		select {
		case fn := <-s.dispatch:
			s.execute(fn)

		case <-s.flush:
			s.execute(s.flushValues)

		case <-s.done:
			return
		}
	}
}

// execute runs a dispatched function with panic recovery.
func (s *Session) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.server.metrics.handlerPanics.Inc()
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
			s.send(protocol.Error(protocol.ErrHandlerPanic, "internal error"))
		}
	}()
	fn()
}
