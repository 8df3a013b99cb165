package notificationevent

import (
	"errors"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/i18nx"
)

// notice is what a payload asks to be sent, before rendering.
type notice struct {
	template     string
	channels     []notify.Channel
	registration event.RegistrationSnapshot
	dimension    review.Dimension
	reason       string
	document     string
}

var applicantAndAdmin = []notify.Channel{notify.ChannelEmail, notify.ChannelChat}

// noticeFor maps a payload to the notice it produces. Only status changes
// that stand for an automatic approval are announced; admin-driven ones
// already have their own event.
func noticeFor(p event.Payload) (notice, bool) {
	switch p := p.(type) {
	case event.AdminRequestUpdate:
		return notice{
			template:     i18nx.TemplateRequestUpdate,
			channels:     applicantAndAdmin,
			registration: p.Registration,
			dimension:    p.Dimension,
			reason:       p.Reason,
		}, true
	case event.AdminMarkPass:
		return notice{
			template:     i18nx.TemplateMarkPass,
			channels:     applicantAndAdmin,
			registration: p.Registration,
			dimension:    p.Dimension,
		}, true
	case event.AdminApproved:
		return notice{
			template:     i18nx.TemplateApproved,
			channels:     applicantAndAdmin,
			registration: p.Registration,
		}, true
	case event.AdminRejected:
		return notice{
			template:     i18nx.TemplateRejected,
			channels:     applicantAndAdmin,
			registration: p.Registration,
			reason:       p.Reason,
		}, true
	case event.DocumentReuploaded:
		return notice{
			template:     i18nx.TemplateDocumentReuploaded,
			channels:     []notify.Channel{notify.ChannelChat},
			registration: p.Registration,
			document:     p.DocumentType,
		}, true
	case event.StatusChanged:
		if p.After != review.StatusApproved || p.ActorRole != role.System || p.Registration == nil {
			return notice{}, false
		}
		if p.Reason != "" && p.Reason != registration.ReasonAutoApproved {
			return notice{}, false
		}
		return notice{
			template:     i18nx.TemplateApproved,
			channels:     applicantAndAdmin,
			registration: *p.Registration,
		}, true
	default:
		return notice{}, false
	}
}

var errNoLocalizer = errors.New("no localizer configured")

func (h *NotificationHandler) render(n notice) (subject, body string, err error) {
	if h.localizer == nil {
		return "", "", errNoLocalizer
	}
	data := map[string]any{
		"RegistrationID": n.registration.RegistrationID,
		"Name":           displayName(n.registration),
		"Dimension":      h.dimensionName(n.dimension),
		"Reason":         n.reason,
		"Document":       n.document,
	}

	subject, err = i18nx.Localize(h.localizer, &i18n.LocalizeConfig{
		MessageID:    i18nx.SubjectKey(n.template),
		TemplateData: data,
	})
	if err != nil {
		return "", "", err
	}
	body, err = i18nx.Localize(h.localizer, &i18n.LocalizeConfig{
		MessageID:    i18nx.BodyKey(n.template),
		TemplateData: data,
	})
	if err != nil {
		return "", "", err
	}

	return subject, body, nil
}

func (h *NotificationHandler) dimensionName(d review.Dimension) string {
	if d == "" {
		return ""
	}
	name, err := i18nx.Localize(h.localizer, &i18n.LocalizeConfig{MessageID: i18nx.KeyDimensionPrefix + d.String()})
	if err != nil {
		return d.String()
	}
	return name
}

func displayName(s event.RegistrationSnapshot) string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.RegistrationID
	}
	return name
}
