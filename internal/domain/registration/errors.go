package registration

import (
	"net/http"

	"gitlab.com/yecreg/yec-backend/pkg/errorx"
)

// Refusals returned in Outcome.Refusal. None of them mutate the registration.
var (
	ErrNilRegistration = &errorx.I18nError{
		MessageKey: "review_registration_missing",
		Code:       errorx.CodeNotFound,
		HTTPCode:   http.StatusNotFound,
	}
	ErrUnknownDimension = &errorx.I18nError{
		MessageKey: "review_unknown_dimension",
		Code:       errorx.CodeInvalid,
		HTTPCode:   http.StatusBadRequest,
	}
	ErrInvalidTargetStatus = &errorx.I18nError{
		MessageKey: "review_invalid_target_status",
		Code:       errorx.CodeInvalid,
		HTTPCode:   http.StatusBadRequest,
	}
	ErrRegistrationApproved = &errorx.I18nError{
		MessageKey: "review_registration_approved",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
	ErrRegistrationRejected = &errorx.I18nError{
		MessageKey: "review_registration_rejected",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
	ErrAlreadyNeedsUpdate = &errorx.I18nError{
		MessageKey: "review_dimension_already_needs_update",
		Code:       errorx.CodeAlreadyProcessed,
		HTTPCode:   http.StatusConflict,
	}
	ErrMarkPassNotAllowed = &errorx.I18nError{
		MessageKey: "review_mark_pass_not_allowed",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
	ErrInvalidTransition = &errorx.I18nError{
		MessageKey: "review_invalid_transition",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
	ErrAlreadyApproved = &errorx.I18nError{
		MessageKey: "review_already_approved",
		Code:       errorx.CodeAlreadyProcessed,
		HTTPCode:   http.StatusConflict,
	}
	ErrAlreadyRejected = &errorx.I18nError{
		MessageKey: "review_already_rejected",
		Code:       errorx.CodeAlreadyProcessed,
		HTTPCode:   http.StatusConflict,
	}
	ErrAlreadySubmitted = &errorx.I18nError{
		MessageKey: "review_already_submitted",
		Code:       errorx.CodeAlreadyProcessed,
		HTTPCode:   http.StatusConflict,
	}
	ErrApprovalIncomplete = &errorx.I18nError{
		MessageKey: "review_approval_incomplete",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
	ErrApprovalBlocked = &errorx.I18nError{
		MessageKey: "review_approval_blocked",
		Code:       errorx.CodeBusinessRuleViolation,
		HTTPCode:   http.StatusUnprocessableEntity,
	}
)
