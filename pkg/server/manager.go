package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SessionManager tracks the live sessions of a server.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions int
	idleTimeout time.Duration
	interval    time.Duration
	logger      *slog.Logger

	onClose func(*Session)

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peak         int

	done        chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

// ManagerStats contains aggregated session manager statistics.
type ManagerStats struct {
	Active       int    `json:"active"`
	TotalCreated uint64 `json:"total_created"`
	TotalClosed  uint64 `json:"total_closed"`
	Peak         int    `json:"peak"`
}

func newSessionManager(config *Config, logger *slog.Logger, onClose func(*Session)) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: config.MaxSessions,
		idleTimeout: config.IdleTimeout,
		interval:    config.CleanupInterval,
		logger:      logger,
		onClose:     onClose,
		done:        make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go sm.cleanupLoop()
	return sm
}

// add registers s, unless the session limit is reached.
func (sm *SessionManager) add(s *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return ErrMaxSessionsReached
	}
	sm.sessions[s.ID] = s
	if len(sm.sessions) > sm.peak {
		sm.peak = len(sm.sessions)
	}
	sm.totalCreated.Add(1)
	return nil
}

// Full reports whether the session limit is reached.
func (sm *SessionManager) Full() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions
}

// Get returns the session with the given id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Close removes and closes a session. Closing an unknown id is a no-op.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}

	s.Close()
	sm.totalClosed.Add(1)
	if sm.onClose != nil {
		sm.onClose(s)
	}
	sm.logger.Info("session closed",
		"session_id", id,
		"active_sessions", sm.Count())
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for every session until it returns false. fn runs with
// the read lock held.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, s := range sm.sessions {
		if !fn(s) {
			return
		}
	}
}

// Stats returns aggregated session statistics.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return ManagerStats{
		Active:       len(sm.sessions),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
		Peak:         sm.peak,
	}
}

func (sm *SessionManager) cleanupLoop() {
	defer close(sm.cleanupDone)
	if sm.idleTimeout <= 0 || sm.interval <= 0 {
		<-sm.done
		return
	}

	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sm.cleanupIdle(time.Now())
		case <-sm.done:
			return
		}
	}
}

// cleanupIdle closes sessions whose client has been silent longer than the
// idle timeout.
func (sm *SessionManager) cleanupIdle(now time.Time) int {
	var idle []string
	sm.mu.RLock()
	for id, s := range sm.sessions {
		if now.Sub(s.LastActive()) > sm.idleTimeout {
			idle = append(idle, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range idle {
		sm.logger.Info("closing idle session", "session_id", id)
		sm.Close(id)
	}
	return len(idle)
}

// Shutdown stops the cleanup loop and closes every session.
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	sm.stopOnce.Do(func() { close(sm.done) })
	<-sm.cleanupDone

	sm.mu.RLock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sm.Close(id)
		}(id)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		sm.logger.Info("session manager shutdown", "closed_sessions", len(ids))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
