package audit

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

func (r Result) String() string {
	return string(r)
}

// Entry is one PII-safe audit record. ActorID and every email or phone value
// in Meta are masked before an Entry is built.
type Entry struct {
	EventID       uuid.UUID      `json:"event_id"`
	Action        string         `json:"action"`
	Resource      string         `json:"resource"`
	ResourceID    string         `json:"resource_id,omitempty"`
	ActorRole     role.Actor     `json:"actor_role"`
	ActorID       string         `json:"actor_id,omitempty"`
	Result        Result         `json:"result"`
	CorrelationID string         `json:"correlation_id"`
	Reason        string         `json:"reason,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

func (e Entry) Succeeded() bool {
	return e.Result == ResultSuccess
}
