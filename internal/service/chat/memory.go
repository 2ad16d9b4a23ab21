package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryConfig bounds the session registry.
type MemoryConfig struct {
	// TTL evicts sessions idle longer than this; zero disables the janitor.
	TTL time.Duration
	// MaxSessions caps the registry; oldest idle sessions go first.
	MaxSessions int
	// SweepInterval overrides how often the janitor runs; defaults to a
	// quarter of the TTL.
	SweepInterval time.Duration
}

// Memory is the process-wide registry of live conversations, mapping
// opaque session keys to sessions. All lookup and insert paths go through
// one mutex; nothing blocking is ever done while it is held. Keys are
// minted as UUIDv4 and act as capability tokens.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg       MemoryConfig
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemory builds the registry and starts its eviction janitor when a TTL
// is configured.
func NewMemory(cfg MemoryConfig) *Memory {
	m := &Memory{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		done:     make(chan struct{}),
	}

	if cfg.TTL > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = cfg.TTL / 4
		}
		if interval < time.Second {
			interval = time.Second
		}
		go m.janitor(interval)
	}

	return m
}

// GetOrCreate returns the session for key, building and registering a new
// one when the key is empty or unknown. build is only invoked on the
// creation path; for a known key the existing session is returned
// unchanged. The returned bool reports whether a session was created.
func (m *Memory) GetOrCreate(key string, build func(key string) (*Session, error)) (*Session, bool, error) {
	if key == "" {
		key = uuid.NewString()
	} else {
		m.mu.Lock()
		if existing, ok := m.sessions[key]; ok {
			m.mu.Unlock()
			return existing, false, nil
		}
		m.mu.Unlock()
	}

	created, err := build(key)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent caller may have registered the same client-chosen key
	// while we were building; theirs wins so both callers share one
	// session.
	if existing, ok := m.sessions[key]; ok {
		return existing, false, nil
	}
	m.sessions[key] = created
	return created, true, nil
}

// Get returns the session for key.
func (m *Memory) Get(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	return session, ok
}

// Remove drops a session from the registry and reports whether it was
// registered.
func (m *Memory) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[key]
	delete(m.sessions, key)
	return ok
}

// Len reports the number of registered sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the janitor. Registered sessions simply become unreachable;
// conversations are ephemeral by design.
func (m *Memory) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if evicted := m.sweep(time.Now()); evicted > 0 {
				log.Printf("[chat] evicted %d idle session(s), %d remaining", evicted, m.Len())
			}
		}
	}
}

// sweep drops sessions idle past the TTL and enforces the registry cap.
// A session with a generation in flight is never evicted.
func (m *Memory) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, session := range m.sessions {
		if session.State() == StateGenerating {
			continue
		}
		if now.Sub(session.LastActive()) > m.cfg.TTL {
			delete(m.sessions, key)
			evicted++
		}
	}

	if m.cfg.MaxSessions > 0 {
		for len(m.sessions) > m.cfg.MaxSessions {
			key, ok := m.oldestIdleLocked()
			if !ok {
				break
			}
			delete(m.sessions, key)
			evicted++
		}
	}

	return evicted
}

func (m *Memory) oldestIdleLocked() (string, bool) {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, session := range m.sessions {
		if session.State() == StateGenerating {
			continue
		}
		if last := session.LastActive(); !found || last.Before(oldest) {
			oldestKey, oldest, found = key, last, true
		}
	}
	return oldestKey, found
}
