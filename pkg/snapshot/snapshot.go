package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/sliderbind/pkg/binding"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned by Load for keys with no snapshot.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidKey is returned for malformed keys.
	ErrInvalidKey = errors.New("snapshot: invalid key")

	// ErrNoSession is returned by Save for snapshots without a session id.
	ErrNoSession = errors.New("snapshot: missing session id")
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Snapshot is the state of one session's inputs at a point in time.
type Snapshot struct {
	SessionID string                   `json:"session_id"`
	Page      string                   `json:"page,omitempty"`
	TakenAt   time.Time                `json:"taken_at"`
	States    map[string]binding.State `json:"states"`
	Values    map[string]binding.Value `json:"values,omitempty"`
}

// Store saves and loads snapshots.
type Store interface {
	// Save writes snap and returns its key.
	Save(ctx context.Context, snap *Snapshot) (string, error)

	// Load reads the snapshot stored under key.
	Load(ctx context.Context, key string) (*Snapshot, error)

	// List returns the keys stored for a session, sorted.
	List(ctx context.Context, sessionID string) ([]string, error)
}

// Fingerprint hashes the content of s. The session id and timestamp are not
// part of it.
func (s *Snapshot) Fingerprint() (uint64, error) {
	data, err := json.Marshal(struct {
		Page   string                   `json:"page"`
		States map[string]binding.State `json:"states"`
		Values map[string]binding.Value `json:"values"`
	}{s.Page, s.States, s.Values})
	if err != nil {
		return 0, fmt.Errorf("snapshot: fingerprint: %w", err)
	}
	return xxhash.Sum64(data), nil
}

// Key returns the storage key of s.
func (s *Snapshot) Key() (string, error) {
	if s.SessionID == "" {
		return "", ErrNoSession
	}
	if !sessionPattern.MatchString(s.SessionID) {
		return "", fmt.Errorf("%w: session id %q", ErrInvalidKey, s.SessionID)
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%016x", s.SessionID, fp), nil
}

// ParseKey splits a key into session id and fingerprint.
func ParseKey(key string) (sessionID string, fingerprint uint64, err error) {
	sessionID, hex, ok := strings.Cut(key, "/")
	if !ok || !sessionPattern.MatchString(sessionID) || len(hex) != 16 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	fingerprint, err = strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return sessionID, fingerprint, nil
}

// Encode returns the JSON encoding of s.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a JSON-encoded snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &s, nil
}

// Dedup wraps store so that a snapshot identical to the last one saved for
// the same session is not written again; Save returns the existing key.
func Dedup(store Store) Store {
	return &dedup{Store: store, last: make(map[string]string)}
}

type dedup struct {
	Store

	mu   sync.Mutex
	last map[string]string
}

func (d *dedup) Save(ctx context.Context, snap *Snapshot) (string, error) {
	key, err := snap.Key()
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	same := d.last[snap.SessionID] == key
	d.mu.Unlock()
	if same {
		return key, nil
	}

	key, err = d.Store.Save(ctx, snap)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.last[snap.SessionID] = key
	d.mu.Unlock()
	return key, nil
}
