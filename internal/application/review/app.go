package review

import (
	reviewevent "gitlab.com/yecreg/yec-backend/internal/application/review/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
)

type App struct {
	Event *reviewevent.StatusUpdateHandler
}

type Args struct {
	Store          reviewevent.RegistrationStore
	Emitter        reviewevent.Emitter
	ApprovalPolicy registration.ApprovalPolicy
}

func NewApp(args Args) *App {
	return &App{
		Event: reviewevent.NewStatusUpdateHandler(reviewevent.StatusUpdateHandlerArgs{
			Store:          args.Store,
			Emitter:        args.Emitter,
			ApprovalPolicy: args.ApprovalPolicy,
		}),
	}
}
