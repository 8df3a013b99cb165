package watermillx

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v4/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Transport string

const (
	TransportGoChannel Transport = "gochannel"
	TransportSQL       Transport = "sql"
)

type PubSubConfig struct {
	Transport     Transport
	Conn          *pgxpool.Pool
	ConsumerGroup string
	PollInterval  time.Duration
	Logger        watermill.LoggerAdapter
}

// NewPubSub returns a publisher and subscriber pair for the configured
// transport. The gochannel transport keeps messages in memory; the sql
// transport stores them in Postgres through the pgx pool.
func NewPubSub(cfg PubSubConfig) (message.Publisher, message.Subscriber, error) {
	if cfg.Logger == nil {
		cfg.Logger = watermill.NopLogger{}
	}

	switch cfg.Transport {
	case TransportGoChannel, "":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, cfg.Logger)
		return ch, ch, nil
	case TransportSQL:
		if cfg.Conn == nil {
			return nil, nil, fmt.Errorf("sql transport requires a database connection")
		}
		return newSQLPubSub(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown watermill transport %q", cfg.Transport)
	}
}

func newSQLPubSub(cfg PubSubConfig) (message.Publisher, message.Subscriber, error) {
	publisher, err := watermillSQL.NewPublisher(
		watermillSQL.BeginnerFromPgx(cfg.Conn),
		watermillSQL.PublisherConfig{
			SchemaAdapter:        watermillSQL.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		cfg.Logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	subscriber, err := watermillSQL.NewSubscriber(
		watermillSQL.BeginnerFromPgx(cfg.Conn),
		watermillSQL.SubscriberConfig{
			ConsumerGroup:    cfg.ConsumerGroup,
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			PollInterval:     cfg.PollInterval,
		},
		cfg.Logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create subscriber: %w", err)
	}

	return publisher, subscriber, nil
}

// InitializeTopics creates the storage for topics up front when the
// subscriber supports it.
func InitializeTopics(ctx context.Context, sub message.Subscriber, topics ...string) error {
	initializer, ok := sub.(message.SubscribeInitializer)
	if !ok {
		return nil
	}

	for _, topic := range topics {
		if err := initializer.SubscribeInitialize(topic); err != nil {
			return fmt.Errorf("failed to initialize topic %s: %w", topic, err)
		}
	}

	return nil
}
