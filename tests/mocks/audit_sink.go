package mocks

import (
	"context"
	"sync"
	"testing"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
)

type AuditSink struct {
	mu       sync.Mutex
	entries  []audit.Entry
	failWith error
}

func NewAuditSink() *AuditSink {
	return &AuditSink{entries: make([]audit.Entry, 0)}
}

func (m *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *AuditSink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *AuditSink) Entries() []audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]audit.Entry{}, m.entries...)
}

func (m *AuditSink) EntriesFor(action string) []audit.Entry {
	var out []audit.Entry
	for _, e := range m.Entries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (m *AuditSink) AssertCount(t *testing.T, expected int) {
	t.Helper()

	if got := len(m.Entries()); got != expected {
		t.Errorf("expected %d audit entries, got %d: %+v", expected, got, m.Entries())
	}
}
