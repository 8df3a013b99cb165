package reviewhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/application/events"
	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/ports/http/middlewares"
	reviewhttp "gitlab.com/yecreg/yec-backend/internal/ports/http/review"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	"gitlab.com/yecreg/yec-backend/tests/mocks"
)

const adminEmail = "reviewer@yec.example"

// recordingEvents builds events through the real service so options and
// validation behave as in production, and records what was emitted.
type recordingEvents struct {
	*events.Service
	mu      sync.Mutex
	emitted []*event.Event
}

func newRecordingEvents() *recordingEvents {
	re := &recordingEvents{}
	re.Service = events.NewService(events.Args{Bus: re})
	return re
}

func (re *recordingEvents) Emit(_ context.Context, e *event.Event) []eventbus.Result {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.emitted = append(re.emitted, e)
	return []eventbus.Result{
		{Handler: "status", EventID: e.ID(), EventType: e.Type(), Success: true},
		{Handler: "notification", EventID: e.ID(), EventType: e.Type(), Success: true},
	}
}

func (re *recordingEvents) Emitted() []*event.Event {
	re.mu.Lock()
	defer re.mu.Unlock()
	return append([]*event.Event(nil), re.emitted...)
}

type Suite struct {
	Router        chi.Router
	Registrations *mocks.RegistrationRepo
	Events        *recordingEvents
}

func NewSuite(t *testing.T) *Suite {
	t.Helper()
	return newSuite(t, registration.ApprovalAdvisory)
}

func newSuite(t *testing.T, policy registration.ApprovalPolicy) *Suite {
	t.Helper()

	repo := mocks.NewRegistrationRepo()
	ev := newRecordingEvents()
	h := reviewhttp.NewHTTP(reviewhttp.Args{Registrations: repo, Events: ev, ApprovalPolicy: policy})

	r := chi.NewRouter()
	h.Route(r)

	return &Suite{Router: r, Registrations: repo, Events: ev}
}

func (s *Suite) seed(t *testing.T, status review.Status, checklist review.Checklist) {
	t.Helper()
	s.Registrations.SeedRegistration(t, registration.Rehydrate(registration.RehydrateArgs{
		ID:             1,
		RegistrationID: "YEC-0001",
		Status:         status,
		Checklist:      checklist,
		Submitted:      true,
		Email:          "applicant@example.com",
	}))
}

type response struct {
	Code           errorx.Code       `json:"code"`
	Success        bool              `json:"success"`
	RegistrationID string            `json:"registration_id"`
	Errors         map[string]string `json:"errors"`
	Results        []struct {
		Handler string `json:"handler"`
		Success bool   `json:"success"`
	} `json:"results"`
}

func (s *Suite) post(t *testing.T, path, body string, actor string) (int, response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middlewares.ActorEmailHeader, actor)
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func checklist(payment, profile, tcc review.DimensionStatus) review.Checklist {
	return review.Checklist{
		Payment: review.Item{Status: payment},
		Profile: review.Item{Status: profile},
		TCC:     review.Item{Status: tcc},
	}
}

func TestHTTP_MarkPass(t *testing.T) {
	s := NewSuite(t)
	s.seed(t, review.StatusWaitingForReview, review.NewChecklist())

	status, resp := s.post(t, "/v1/admin/registrations/YEC-0001/review/payment/mark-pass", "", adminEmail)

	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, "YEC-0001", resp.RegistrationID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "status", resp.Results[0].Handler)

	emitted := s.Events.Emitted()
	require.Len(t, emitted, 1)
	p, ok := emitted[0].Payload().(event.AdminMarkPass)
	require.True(t, ok)
	assert.Equal(t, review.Payment, p.Dimension)
	assert.Equal(t, adminEmail, p.ActorEmail)
	assert.Equal(t, "YEC-0001", p.Registration.RegistrationID)
}

func TestHTTP_RequestUpdate(t *testing.T) {
	s := NewSuite(t)
	s.seed(t, review.StatusWaitingForReview, review.NewChecklist())

	status, _ := s.post(t, "/v1/admin/registrations/YEC-0001/review/profile/request-update",
		`{"reason":"  photo is\u0007 blurry  "}`, adminEmail)

	require.Equal(t, http.StatusOK, status)
	emitted := s.Events.Emitted()
	require.Len(t, emitted, 1)
	p, ok := emitted[0].Payload().(event.AdminRequestUpdate)
	require.True(t, ok)
	assert.Equal(t, review.Profile, p.Dimension)
	assert.Equal(t, "photo is blurry", p.Reason)
}

func TestHTTP_Errors(t *testing.T) {
	tests := []struct {
		name           string
		status         review.Status
		checklist      review.Checklist
		path           string
		body           string
		actor          string
		expectedStatus int
		expectedCode   errorx.Code
	}{
		{
			name:           "missing actor",
			path:           "/v1/admin/registrations/YEC-0001/review/payment/mark-pass",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   errorx.CodeUnauthorized,
		},
		{
			name:           "invalid actor",
			path:           "/v1/admin/registrations/YEC-0001/review/payment/mark-pass",
			actor:          "not-an-email",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   errorx.CodeUnauthorized,
		},
		{
			name:           "unknown dimension",
			path:           "/v1/admin/registrations/YEC-0001/review/avatar/mark-pass",
			actor:          adminEmail,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errorx.CodeInvalid,
		},
		{
			name:           "unknown registration",
			path:           "/v1/admin/registrations/YEC-9999/review/payment/mark-pass",
			actor:          adminEmail,
			expectedStatus: http.StatusNotFound,
			expectedCode:   errorx.CodeNotFound,
		},
		{
			name:           "edit approved registration",
			status:         review.StatusApproved,
			checklist:      checklist(review.DimensionPassed, review.DimensionPassed, review.DimensionPassed),
			path:           "/v1/admin/registrations/YEC-0001/review/profile/request-update",
			body:           `{"reason":"too late"}`,
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "mark pass on rejected dimension",
			status:         review.StatusRejected,
			checklist:      checklist(review.DimensionRejected, review.DimensionPending, review.DimensionPending),
			path:           "/v1/admin/registrations/YEC-0001/review/payment/mark-pass",
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "mark pass on passed dimension",
			checklist:      checklist(review.DimensionPassed, review.DimensionPending, review.DimensionPending),
			path:           "/v1/admin/registrations/YEC-0001/review/payment/mark-pass",
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "request update on dimension already waiting for update",
			checklist:      checklist(review.DimensionNeedsUpdate, review.DimensionPending, review.DimensionPending),
			path:           "/v1/admin/registrations/YEC-0001/review/payment/request-update",
			body:           `{"reason":"still blurry"}`,
			actor:          adminEmail,
			expectedStatus: http.StatusConflict,
			expectedCode:   errorx.CodeAlreadyProcessed,
		},
		{
			name:           "request update on passed dimension",
			checklist:      checklist(review.DimensionPending, review.DimensionPassed, review.DimensionPending),
			path:           "/v1/admin/registrations/YEC-0001/review/profile/request-update",
			body:           `{"reason":"changed my mind"}`,
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "request update without reason",
			path:           "/v1/admin/registrations/YEC-0001/review/profile/request-update",
			body:           `{"reason":""}`,
			actor:          adminEmail,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errorx.CodeValidationFailed,
		},
		{
			name:           "reject with blank lines as reason",
			path:           "/v1/admin/registrations/YEC-0001/reject",
			body:           `{"reason":"\n \r\n\t"}`,
			actor:          adminEmail,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errorx.CodeValidationFailed,
		},
		{
			name:           "malformed body",
			path:           "/v1/admin/registrations/YEC-0001/reject",
			body:           `{"reason":`,
			actor:          adminEmail,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errorx.CodeMalformedJSON,
		},
		{
			name:           "approve incomplete checklist",
			checklist:      checklist(review.DimensionPassed, review.DimensionPending, review.DimensionPassed),
			path:           "/v1/admin/registrations/YEC-0001/approve",
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "approve with rejected dimension",
			status:         review.StatusRejected,
			checklist:      checklist(review.DimensionPassed, review.DimensionRejected, review.DimensionPassed),
			path:           "/v1/admin/registrations/YEC-0001/approve",
			body:           `{"override":true}`,
			actor:          adminEmail,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   errorx.CodeBusinessRuleViolation,
		},
		{
			name:           "approve approved registration",
			status:         review.StatusApproved,
			checklist:      checklist(review.DimensionPassed, review.DimensionPassed, review.DimensionPassed),
			path:           "/v1/admin/registrations/YEC-0001/approve",
			actor:          adminEmail,
			expectedStatus: http.StatusConflict,
			expectedCode:   errorx.CodeAlreadyProcessed,
		},
		{
			name:           "reject rejected registration",
			status:         review.StatusRejected,
			path:           "/v1/admin/registrations/YEC-0001/reject",
			body:           `{"reason":"again"}`,
			actor:          adminEmail,
			expectedStatus: http.StatusConflict,
			expectedCode:   errorx.CodeAlreadyProcessed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSuite(t)
			st := tt.status
			if st == "" {
				st = review.StatusWaitingForReview
			}
			c := tt.checklist
			if c == (review.Checklist{}) {
				c = review.NewChecklist()
			}
			s.seed(t, st, c)

			status, resp := s.post(t, tt.path, tt.body, tt.actor)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.False(t, resp.Success)
			assert.Empty(t, s.Events.Emitted())
		})
	}
}

func TestHTTP_ValidationErrorsAreReportedPerField(t *testing.T) {
	s := NewSuite(t)
	s.seed(t, review.StatusWaitingForReview, review.NewChecklist())

	status, resp := s.post(t, "/v1/admin/registrations/YEC-0001/reject", `{"reason":""}`, adminEmail)

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "cannot be blank", resp.Errors["reason"])
}

func TestHTTP_Approve(t *testing.T) {
	t.Run("all passed", func(t *testing.T) {
		s := NewSuite(t)
		s.seed(t, review.StatusWaitingForReview,
			checklist(review.DimensionPassed, review.DimensionPassed, review.DimensionPassed))

		status, _ := s.post(t, "/v1/admin/registrations/YEC-0001/approve", "", adminEmail)

		require.Equal(t, http.StatusOK, status)
		emitted := s.Events.Emitted()
		require.Len(t, emitted, 1)
		assert.Equal(t, event.TypeAdminApproved, emitted[0].Type())
		assert.Empty(t, emitted[0].Metadata()["override"])
	})

	t.Run("override", func(t *testing.T) {
		s := NewSuite(t)
		s.seed(t, review.StatusWaitingForReview,
			checklist(review.DimensionPassed, review.DimensionNeedsUpdate, review.DimensionPending))

		status, _ := s.post(t, "/v1/admin/registrations/YEC-0001/approve", `{"override":true}`, adminEmail)

		require.Equal(t, http.StatusOK, status)
		emitted := s.Events.Emitted()
		require.Len(t, emitted, 1)
		assert.Equal(t, "true", emitted[0].Metadata()["override"])
	})

	t.Run("override refused under strict policy", func(t *testing.T) {
		s := newSuite(t, registration.ApprovalStrict)
		s.seed(t, review.StatusWaitingForReview,
			checklist(review.DimensionPassed, review.DimensionPending, review.DimensionPassed))

		status, resp := s.post(t, "/v1/admin/registrations/YEC-0001/approve", `{"override":true}`, adminEmail)

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, errorx.CodeBusinessRuleViolation, resp.Code)
		assert.Empty(t, s.Events.Emitted())
	})
}

func TestHTTP_Reject(t *testing.T) {
	s := NewSuite(t)
	s.seed(t, review.StatusWaitingForReview, review.NewChecklist())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/registrations/YEC-0001/reject",
		strings.NewReader(`{"reason":"duplicate entry"}`))
	req.Header.Set(middlewares.ActorEmailHeader, adminEmail)
	req.Header.Set("X-Correlation-ID", "corr-99")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	emitted := s.Events.Emitted()
	require.Len(t, emitted, 1)
	p, ok := emitted[0].Payload().(event.AdminRejected)
	require.True(t, ok)
	assert.Equal(t, "duplicate entry", p.Reason)
	assert.Equal(t, "corr-99", emitted[0].CorrelationID())
}
