package store

import (
	"sync"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DefaultDestinationTTL is how long a detected destination stays attached to
// a session.
const DefaultDestinationTTL = 30 * time.Minute

type destination struct {
	Region    string
	UpdatedAt time.Time
}

// MemoryStore keeps per-session chat transcripts and the last destination
// detected for each session.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string][]Message
	maxMessages int
	// Last detected destination per session, expires after destinationTTL
	destinationBySession map[string]destination
	destinationTTL       time.Duration
	now                  func() time.Time
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:             make(map[string][]Message),
		maxMessages:          maxMessages,
		destinationBySession: make(map[string]destination),
		destinationTTL:       DefaultDestinationTTL,
		now:                  time.Now,
	}
}

// SetDestinationTTL changes how long destinations are remembered.
func (m *MemoryStore) SetDestinationTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destinationTTL = ttl
}

func (m *MemoryStore) Append(sessionID string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], msg)
	m.trimLocked(sessionID)
}

func (m *MemoryStore) Get(sessionID string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	copyMsgs := make([]Message, len(msgs))
	copy(copyMsgs, msgs)
	return copyMsgs
}

func (m *MemoryStore) trimLocked(sessionID string) {
	if m.maxMessages <= 0 {
		return
	}
	msgs := m.sessions[sessionID]
	if len(msgs) > m.maxMessages {
		m.sessions[sessionID] = msgs[len(msgs)-m.maxMessages:]
	}
}

// SetDestination remembers region for the session.
func (m *MemoryStore) SetDestination(sessionID, region string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destinationBySession[sessionID] = destination{Region: region, UpdatedAt: m.now()}
}

// GetDestination returns the remembered region if within TTL.
func (m *MemoryStore) GetDestination(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.destinationBySession[sessionID]
	if !ok {
		return "", false
	}
	if m.destinationTTL > 0 && m.now().Sub(d.UpdatedAt) > m.destinationTTL {
		delete(m.destinationBySession, sessionID)
		return "", false
	}
	return d.Region, true
}

// Clear drops everything stored for the session.
func (m *MemoryStore) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	delete(m.destinationBySession, sessionID)
}
