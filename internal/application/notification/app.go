package notification

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"

	notificationevent "gitlab.com/yecreg/yec-backend/internal/application/notification/event"
)

type App struct {
	Event *notificationevent.NotificationHandler
}

type Args struct {
	Sink            notificationevent.Sink
	Localizer       *i18n.Localizer
	AdminChatTarget string
}

func NewApp(args Args) *App {
	return &App{
		Event: notificationevent.NewNotificationHandler(notificationevent.NotificationHandlerArgs{
			Sink:            args.Sink,
			Localizer:       args.Localizer,
			AdminChatTarget: args.AdminChatTarget,
		}),
	}
}
