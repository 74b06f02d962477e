package server

import (
	_ "embed"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/inputs"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/render"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed static/sliderbind.js
var clientScript []byte

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleWebSocket)
	r.Get(render.DefaultClientScript, s.handleClientScript)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/inputs", s.handleInputs)
		r.Post("/snapshots", s.handleSnapshot)
	})
	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("page")
	if name == "" {
		name = s.config.DefaultPage
	}
	page, ok := s.page(name)
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	doc := dom.NewDocument()
	doc.Root().AppendChild(doc.CreateElement("div").SetAttr("id", "sliderbind-root"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.renderer.RenderPage(w, render.PageData{
		Body:        doc.Root(),
		Title:       page.Title,
		Page:        page.Name,
		StyleSheets: s.config.StyleSheets,
	})
	if err != nil {
		s.logger.Error("render page", "page", name, "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Full() {
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(s, conn)
	if err := s.sessions.add(sess); err != nil {
		sess.send(protocol.Error(protocol.ErrServerError, "%s", err.Error()))
		sess.Close()
		return
	}
	s.metrics.activeSessions.Inc()
	sess.logger.Info("session started", "remote_addr", r.RemoteAddr)
	sess.Start()
}

func (s *Server) handleClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(clientScript)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Stats(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, protocol.MaxMessageSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > protocol.MaxMessageSize {
		writeError(w, http.StatusRequestEntityTooLarge, protocol.ErrMessageTooLarge)
		return
	}
	msg, err := protocol.DecodeInput(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.SendInputMessage(chi.URLParam(r, "id"), msg.ID, msg.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, inputs.ErrInputNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusServiceUnavailable, err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	key, err := s.SaveSnapshot(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	case errors.Is(err, ErrNoSnapshotStore):
		writeError(w, http.StatusNotImplemented, err)
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Error("save snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
