package audit

import (
	auditevent "gitlab.com/yecreg/yec-backend/internal/application/audit/event"
)

type App struct {
	Event *auditevent.AuditHandler
}

type Args struct {
	Sink auditevent.Sink
}

func NewApp(args Args) *App {
	return &App{
		Event: auditevent.NewAuditHandler(auditevent.AuditHandlerArgs{
			Sink: args.Sink,
		}),
	}
}
