package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifyadapter "gitlab.com/yecreg/yec-backend/internal/adapters/services/notify"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
)

// Recorder is a delivery endpoint that keeps every envelope it receives.
type Recorder struct {
	mu        sync.Mutex
	envelopes []notify.Envelope
}

func (r *Recorder) Send(_ context.Context, env notify.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, env)
	return nil
}

func (r *Recorder) Envelopes() []notify.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Envelope(nil), r.envelopes...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = nil
}

type Helper struct {
	pool  *pgxpool.Pool
	Email *Recorder
	Chat  *Recorder
}

func NewHelper(pool *pgxpool.Pool) *Helper {
	return &Helper{pool: pool, Email: &Recorder{}, Chat: &Recorder{}}
}

func (h *Helper) recorder(channel notify.Channel) *Recorder {
	if channel == notify.ChannelChat {
		return h.Chat
	}
	return h.Email
}

// WaitForDeliveries waits until at least n envelopes of the given event type
// reached the channel's endpoint.
func (h *Helper) WaitForDeliveries(t *testing.T, channel notify.Channel, eventType string, n int) []notify.Envelope {
	t.Helper()

	var matched []notify.Envelope
	require.Eventually(t, func() bool {
		matched = matched[:0]
		for _, env := range h.recorder(channel).Envelopes() {
			if env.Message.EventType == eventType {
				matched = append(matched, env)
			}
		}
		return len(matched) >= n
	}, 10*time.Second, 100*time.Millisecond, "expected %d %s deliveries of %s", n, channel, eventType)

	return matched
}

// AssertNoDelivery checks that nothing of the given event type reached the channel.
func (h *Helper) AssertNoDelivery(t *testing.T, channel notify.Channel, eventType string) {
	t.Helper()

	for _, env := range h.recorder(channel).Envelopes() {
		assert.NotEqual(t, eventType, env.Message.EventType, "unexpected %s delivery on %s", eventType, channel)
	}
}

// AssertQueued reads the stored outbox for the channel's topic and checks the
// number of messages published for the event type.
func (h *Helper) AssertQueued(t *testing.T, channel notify.Channel, eventType string, expected int) {
	t.Helper()

	topic, err := notifyadapter.Topic(channel)
	require.NoError(t, err)

	var count int
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE metadata->>'%s' = $1`,
		quoteTopicTable(topic), notifyadapter.MetadataEventType,
	)
	err = h.pool.QueryRow(context.Background(), query, eventType).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected queued %s count on %s", eventType, topic)
}

// LastQueued returns the newest stored envelope of the channel's topic.
func (h *Helper) LastQueued(t *testing.T, channel notify.Channel) notify.Envelope {
	t.Helper()

	topic, err := notifyadapter.Topic(channel)
	require.NoError(t, err)

	var payload json.RawMessage
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY "offset" DESC LIMIT 1`, quoteTopicTable(topic))
	err = h.pool.QueryRow(context.Background(), query).Scan(&payload)
	require.NoError(t, err, "no queued message on %s", topic)

	var env notify.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func (h *Helper) Reset(t *testing.T) {
	t.Helper()

	h.Email.Reset()
	h.Chat.Reset()
	for _, topic := range []string{notifyadapter.TopicEmail, notifyadapter.TopicChat} {
		_, err := h.pool.Exec(context.Background(), "TRUNCATE TABLE "+quoteTopicTable(topic))
		require.NoError(t, err)
	}
}

func quoteTopicTable(topic string) string {
	return `"watermill_` + strings.ReplaceAll(topic, `"`, `""`) + `"`
}
