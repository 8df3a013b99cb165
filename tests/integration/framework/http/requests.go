package http

import (
	"net/http"
	"testing"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
)

func reviewPath(registrationID string) string {
	return "/v1/admin/registrations/" + registrationID
}

func (h *Helper) MarkPass(t *testing.T, registrationID string, d review.Dimension, correlationID string) *Response {
	req := Request{
		Method: http.MethodPost,
		Path:   reviewPath(registrationID) + "/review/" + d.String() + "/mark-pass",
	}
	if correlationID != "" {
		req.Headers = map[string]string{"X-Correlation-ID": correlationID}
	}
	return h.Do(t, req)
}

func (h *Helper) RequestUpdate(t *testing.T, registrationID string, d review.Dimension, reason string) *Response {
	return h.Do(t, Request{
		Method: http.MethodPost,
		Path:   reviewPath(registrationID) + "/review/" + d.String() + "/request-update",
		Body:   map[string]string{"reason": reason},
	})
}

func (h *Helper) Approve(t *testing.T, registrationID string, override bool) *Response {
	req := Request{
		Method: http.MethodPost,
		Path:   reviewPath(registrationID) + "/approve",
	}
	if override {
		req.Body = map[string]bool{"override": true}
	}
	return h.Do(t, req)
}

func (h *Helper) Reject(t *testing.T, registrationID, reason, correlationID string) *Response {
	req := Request{
		Method: http.MethodPost,
		Path:   reviewPath(registrationID) + "/reject",
		Body:   map[string]string{"reason": reason},
	}
	if correlationID != "" {
		req.Headers = map[string]string{"X-Correlation-ID": correlationID}
	}
	return h.Do(t, req)
}
