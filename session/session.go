package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Record is the minimal session state shared by the navigation bar, the login
// flow, and checkout
type Record struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscriber observes session changes. present is false when the session was
// cleared.
type Subscriber func(record Record, present bool)

// ManagerOptions contains the configuration for the session Manager
type ManagerOptions struct {
	Logger *zap.Logger
}

// Manager is the single owner of the session record. The record used to live
// in ambient browser storage and was mutated independently by several UI
// components; here every mutation goes through the Manager and interested
// components subscribe instead of polling. Last write wins, consistent with
// the single-tab, single-user assumption.
type Manager struct {
	ManagerOptions

	mu          sync.RWMutex
	current     *Record
	subscribers []Subscriber
}

// NewManager validates the options and returns a session Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

// Subscribe registers a Subscriber for session changes. Subscribers are
// invoked synchronously under the write path, in registration order.
func (m *Manager) Subscribe(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, sub)
}

// Put replaces the session record and notifies subscribers
func (m *Manager) Put(record Record) {
	m.mu.Lock()
	m.current = &record
	subs := m.subscribers
	m.mu.Unlock()

	m.Logger.Info("Session established",
		zap.String("Email", record.Email),
	)
	for _, sub := range subs {
		sub(record, true)
	}
}

// Get returns the current session record, if any
func (m *Manager) Get() (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Record{}, false
	}
	return *m.current, true
}

// Clear drops the session record and notifies subscribers
func (m *Manager) Clear() {
	m.mu.Lock()
	m.current = nil
	subs := m.subscribers
	m.mu.Unlock()

	for _, sub := range subs {
		sub(Record{}, false)
	}
}
