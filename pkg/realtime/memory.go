package realtime

import (
	"context"
	"sync"
)

// Memory is an in-process Feed. Publish fans out to the current subscribers
// of the change's table without blocking on slow readers.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: map[string]map[*Subscription]struct{}{}}
}

func (m *Memory) Publish(_ context.Context, c Change) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*Subscription, 0, len(m.subs[c.Table]))
	for s := range m.subs[c.Table] {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.deliver(c)
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, table string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	var sub *Subscription
	sub = newSubscription(func() { m.remove(table, sub) })
	if m.subs[table] == nil {
		m.subs[table] = map[*Subscription]struct{}{}
	}
	m.subs[table][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of open subscriptions on table.
func (m *Memory) Subscribers(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[table])
}

// Close fails every open subscription with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var all []*Subscription
	for _, set := range m.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	m.mu.Unlock()

	for _, s := range all {
		s.finish(ErrClosed)
	}
	return nil
}

func (m *Memory) remove(table string, s *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs[table], s)
	if len(m.subs[table]) == 0 {
		delete(m.subs, table)
	}
}
