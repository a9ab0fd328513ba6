package session

import (
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/basket-facade/internal/frame"
	"github.com/GriffinCanCode/basket-facade/internal/shared/id"
)

// Source reports the live state of a session's frame.
type Source interface {
	Snapshot() frame.Snapshot
}

// Info describes one live frame session.
type Info struct {
	ID         id.SessionID `json:"id"`
	RemoteAddr string       `json:"remote_addr"`
	StartedAt  time.Time    `json:"started_at"`
	frame.Snapshot
}

type entry struct {
	id        id.SessionID
	remote    string
	startedAt time.Time
	source    Source
}

func (e *entry) info() Info {
	return Info{ID: e.id, RemoteAddr: e.remote, StartedAt: e.startedAt, Snapshot: e.source.Snapshot()}
}

// Manager tracks the frame runtimes served over websocket.
type Manager struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*entry
	now      func() time.Time
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{sessions: make(map[id.SessionID]*entry), now: time.Now}
}

// Register records a new session and returns its ID.
func (m *Manager) Register(remote string, src Source) id.SessionID {
	e := &entry{id: id.NewSessionID(), remote: remote, startedAt: m.now(), source: src}

	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()
	return e.id
}

// Remove forgets a session. It reports whether the session existed.
func (m *Manager) Remove(sid id.SessionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sid]; !ok {
		return false
	}
	delete(m.sessions, sid)
	return true
}

// Get returns a session's current info.
func (m *Manager) Get(sid id.SessionID) (Info, bool) {
	m.mu.RLock()
	e, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

// List returns every live session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	// ULIDs sort by creation time.
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	out := make([]Info, len(entries))
	for i, e := range entries {
		out[i] = e.info()
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
