package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
)

const defaultTimeout = 10 * time.Second

// Webhook posts chat notifications as JSON to an incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

type WebhookArgs struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func NewWebhook(args WebhookArgs) *Webhook {
	if args.Timeout == 0 {
		args.Timeout = defaultTimeout
	}
	if args.Client == nil {
		args.Client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   args.Timeout,
		}
	}

	return &Webhook{url: args.URL, client: args.Client}
}

type webhookPayload struct {
	Channel        string `json:"channel,omitempty"`
	Text           string `json:"text"`
	EventType      string `json:"event_type,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, env notify.Envelope) error {
	const op = "chat.Webhook.Send"

	text := env.Message.Body
	if env.Message.Subject != "" {
		text = env.Message.Subject + "\n\n" + text
	}
	body, err := json.Marshal(webhookPayload{
		Channel:        env.Recipient,
		Text:           text,
		EventType:      env.Message.EventType,
		RegistrationID: env.Message.RegistrationID,
		CorrelationID:  env.Message.CorrelationID,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: webhook responded with %d", op, resp.StatusCode)
	}

	return nil
}
