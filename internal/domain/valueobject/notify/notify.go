package notify

import (
	"github.com/google/uuid"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelChat}
}

func (c Channel) String() string {
	return string(c)
}

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelChat
}

// Message is a rendered notification ready for delivery.
type Message struct {
	EventID        uuid.UUID        `json:"event_id"`
	EventType      string           `json:"event_type"`
	CorrelationID  string           `json:"correlation_id,omitempty"`
	RegistrationID string           `json:"registration_id,omitempty"`
	Dimension      review.Dimension `json:"dimension,omitempty"`
	Subject        string           `json:"subject,omitempty"`
	Body           string           `json:"body"`
}

// Envelope is what travels over the delivery pipeline.
type Envelope struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Message   Message `json:"message"`
}
