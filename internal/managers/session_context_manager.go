package managers

import "sync"

// SessionContextManager holds per-session scratch documents the assistant
// surfaces as context: uploaded feedback text and product documentation.
// Sessions are identified by an opaque cookie value, state lives in process
// memory only.
type SessionContextManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionContext
}

type sessionContext struct {
	feedback   string
	productDoc string
}

func NewSessionContextManager() *SessionContextManager {
	return &SessionContextManager{sessions: map[string]*sessionContext{}}
}

func (m *SessionContextManager) SetFeedback(sessionID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).feedback = text
}

func (m *SessionContextManager) Feedback(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.feedback == "" {
		return "", false
	}
	return s.feedback, true
}

func (m *SessionContextManager) ClearFeedback(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.feedback = ""
	}
}

func (m *SessionContextManager) SetProductDoc(sessionID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).productDoc = text
}

func (m *SessionContextManager) ProductDoc(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.productDoc == "" {
		return "", false
	}
	return s.productDoc, true
}

func (m *SessionContextManager) ClearProductDoc(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.productDoc = ""
	}
}

// session must be called with the lock held.
func (m *SessionContextManager) session(sessionID string) *sessionContext {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &sessionContext{}
		m.sessions[sessionID] = s
	}
	return s
}
