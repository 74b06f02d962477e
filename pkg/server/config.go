package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Config configures the server.
type Config struct {
	// Address is the listen address. Default: ":8080".
	Address string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin of WebSocket upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ReadTimeout is how long a connection may stay silent. The client's
	// pings and pong replies to HeartbeatInterval pings reset it.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout time.Duration

	// HeartbeatInterval is how often the server pings the client.
	HeartbeatInterval time.Duration

	// IdleTimeout closes sessions with no client message for this long.
	// Zero disables the check.
	IdleTimeout time.Duration

	// CleanupInterval is how often idle sessions are looked for.
	CleanupInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// MaxSessions limits concurrent sessions. Zero means no limit.
	MaxSessions int

	// SendQueueSize is the number of outgoing messages buffered per session.
	SendQueueSize int

	// DispatchQueueSize is the number of functions buffered per session
	// event loop.
	DispatchQueueSize int

	// DefaultPage is served by GET / without a page parameter.
	DefaultPage string

	// StyleSheets are linked from every page shell.
	StyleSheets []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		IdleTimeout:       30 * time.Minute,
		CleanupInterval:   30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		SendQueueSize:     64,
		DispatchQueueSize: 256,
		DefaultPage:       "demo",
	}
}

// withDefaults returns a copy of c with unset fields filled from
// DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.HeartbeatInterval == 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.CleanupInterval == 0 {
		out.CleanupInterval = d.CleanupInterval
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.SendQueueSize == 0 {
		out.SendQueueSize = d.SendQueueSize
	}
	if out.DispatchQueueSize == 0 {
		out.DispatchQueueSize = d.DispatchQueueSize
	}
	if out.DefaultPage == "" {
		out.DefaultPage = d.DefaultPage
	}
	return &out
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.HeartbeatInterval >= c.ReadTimeout {
		errs = append(errs, fmt.Errorf("heartbeat interval %s must be below read timeout %s", c.HeartbeatInterval, c.ReadTimeout))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("negative max sessions %d", c.MaxSessions))
	}
	if c.SendQueueSize < 0 || c.DispatchQueueSize < 0 {
		errs = append(errs, errors.New("negative queue size"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("server: invalid config: %w", err)
	}
	return nil
}

// SameOriginCheck accepts WebSocket upgrades without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}
