package mocks

import (
	"context"
	"strings"
	"sync"
	"testing"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
)

type NotificationSink struct {
	mu         sync.Mutex
	delivered  []notify.Envelope
	configured map[notify.Channel]bool
	failWith   error
}

// NewNotificationSink returns a sink with every channel configured.
func NewNotificationSink() *NotificationSink {
	return &NotificationSink{
		delivered: make([]notify.Envelope, 0),
		configured: map[notify.Channel]bool{
			notify.ChannelEmail: true,
			notify.ChannelChat:  true,
		},
	}
}

func (m *NotificationSink) Configured(channel notify.Channel) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.configured[channel]
}

func (m *NotificationSink) Deliver(ctx context.Context, channel notify.Channel, recipient string, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	m.delivered = append(m.delivered, notify.Envelope{Channel: channel, Recipient: recipient, Message: msg})
	return nil
}

func (m *NotificationSink) SetConfigured(channel notify.Channel, configured bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[channel] = configured
}

func (m *NotificationSink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *NotificationSink) Delivered() []notify.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]notify.Envelope{}, m.delivered...)
}

func (m *NotificationSink) DeliveredTo(channel notify.Channel) []notify.Envelope {
	var out []notify.Envelope
	for _, env := range m.Delivered() {
		if env.Channel == channel {
			out = append(out, env)
		}
	}
	return out
}

func (m *NotificationSink) AssertDelivered(t *testing.T, channel notify.Channel, recipient, bodyContains string) {
	t.Helper()

	for _, env := range m.Delivered() {
		if env.Channel == channel && env.Recipient == recipient && strings.Contains(env.Message.Body, bodyContains) {
			return
		}
	}
	t.Errorf("expected %s notification to %s containing %q, got %+v", channel, recipient, bodyContains, m.Delivered())
}

func (m *NotificationSink) AssertCount(t *testing.T, expected int) {
	t.Helper()

	if got := len(m.Delivered()); got != expected {
		t.Errorf("expected %d notifications, got %d: %+v", expected, got, m.Delivered())
	}
}
