package eventbus

import (
	"fmt"

	auditevent "gitlab.com/yecreg/yec-backend/internal/application/audit/event"
	notificationevent "gitlab.com/yecreg/yec-backend/internal/application/notification/event"
	reviewevent "gitlab.com/yecreg/yec-backend/internal/application/review/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
)

type Port struct {
	bus *eventbus.Bus
}

type AppEventHandlers struct {
	Status       *reviewevent.StatusUpdateHandler
	Notification *notificationevent.NotificationHandler
	Audit        *auditevent.AuditHandler
}

func NewPort(bus *eventbus.Bus) *Port {
	return &Port{bus: bus}
}

// Register subscribes every side-effect handler to its event types. The
// status handler publishes the status changes it records back on the bus.
func (p *Port) Register(handlers AppEventHandlers) error {
	type subscription struct {
		handler eventbus.Handler
		types   []event.Type
	}
	var subs []subscription

	if handlers.Status != nil {
		handlers.Status.SetEmitter(p.bus)
		subs = append(subs, subscription{handlers.Status, reviewevent.SubscribedTypes()})
	}
	if handlers.Notification != nil {
		subs = append(subs, subscription{handlers.Notification, notificationevent.SubscribedTypes()})
	}
	if handlers.Audit != nil {
		subs = append(subs, subscription{handlers.Audit, auditevent.SubscribedTypes()})
	}

	for _, s := range subs {
		if err := p.bus.Subscribe(s.handler, s.types...); err != nil {
			return fmt.Errorf("failed to subscribe %s handler: %w", s.handler.Name(), err)
		}
	}

	return nil
}
