package watermill

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifyadapter "gitlab.com/yecreg/yec-backend/internal/adapters/services/notify"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
)

type recordingDeliverer struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []notify.Envelope
	done     chan struct{}
}

func newRecordingDeliverer(failures int) *recordingDeliverer {
	return &recordingDeliverer{failures: failures, done: make(chan struct{}, 1)}
}

func (d *recordingDeliverer) Send(ctx context.Context, env notify.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.calls <= d.failures {
		return errors.New("temporary failure")
	}
	d.got = append(d.got, env)
	select {
	case d.done <- struct{}{}:
	default:
	}
	return nil
}

func startPort(t *testing.T, deliverers Deliverers) *gochannel.GoChannel {
	t.Helper()

	logger := watermill.NopLogger{}
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, logger)
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	require.NoError(t, err)

	port := NewPort(router, pubsub, logger, RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond})
	require.NoError(t, port.Register(deliverers))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = port.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = router.Close()
		_ = pubsub.Close()
	})

	select {
	case <-port.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start")
	}

	return pubsub
}

func TestPort_DeliversThroughPublisher(t *testing.T) {
	email := newRecordingDeliverer(0)
	chat := newRecordingDeliverer(0)
	pubsub := startPort(t, Deliverers{Email: email, Chat: chat})

	publisher := notifyadapter.NewPublisher(notifyadapter.PublisherArgs{Publisher: pubsub, Channels: notify.Channels()})
	msg := notify.Message{EventID: uuid.New(), EventType: "admin.approved", RegistrationID: "YEC-0001", Body: "approved"}
	require.NoError(t, publisher.Deliver(context.Background(), notify.ChannelEmail, "applicant@example.com", msg))

	select {
	case <-email.done:
	case <-time.After(2 * time.Second):
		t.Fatal("email was not delivered")
	}

	email.mu.Lock()
	defer email.mu.Unlock()
	require.Len(t, email.got, 1)
	assert.Equal(t, "applicant@example.com", email.got[0].Recipient)
	assert.Equal(t, msg, email.got[0].Message)

	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Empty(t, chat.got)
}

func TestPort_RetriesFailedDelivery(t *testing.T) {
	chat := newRecordingDeliverer(2)
	pubsub := startPort(t, Deliverers{Chat: chat})

	publisher := notifyadapter.NewPublisher(notifyadapter.PublisherArgs{Publisher: pubsub, Channels: notify.Channels()})
	require.NoError(t, publisher.Deliver(context.Background(), notify.ChannelChat, "#yec-admins", notify.Message{Body: "hi"}))

	select {
	case <-chat.done:
	case <-time.After(2 * time.Second):
		t.Fatal("chat was not delivered after retries")
	}

	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Equal(t, 3, chat.calls)
	assert.Len(t, chat.got, 1)
}
