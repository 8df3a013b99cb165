package errorx

type Code string

func (c Code) String() string {
	return string(c)
}

const (
	// Success codes
	CodeSuccess Code = "SUCCESS"
	CodeCreated Code = "RESOURCE_CREATED"
	CodeDeleted Code = "RESOURCE_DELETED"

	// Client errors (4xx)
	CodeInvalid          Code = "INVALID"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeMalformedJSON    Code = "MALFORMED_JSON"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeConflict         Code = "CONFLICT"
	CodeDuplicateEntry   Code = "DUPLICATE_ENTRY"

	// Business logic
	CodeAlreadyProcessed      Code = "ALREADY_PROCESSED"
	CodeBusinessRuleViolation Code = "BUSINESS_RULE_VIOLATION"

	// Server errors (5xx)
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)
