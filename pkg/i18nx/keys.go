package i18nx

// Error message keys
const (
	KeyInvalid               = "invalid"
	KeyValidationFailed      = "validation_failed"
	KeyValidationFailedField = "validation_failed_field"
	KeyNotFound              = "not_found"
	KeyNotFoundWithType      = "not_found_with_type"
	KeyAlreadyProcessed      = "already_processed"
	KeyBusinessRuleViolation = "business_rule_violation"
	KeyInternalError         = "internal_error"
)

// Dimension display names, keyed by "dimension_" + dimension.
const KeyDimensionPrefix = "dimension_"

// Notification templates. Each template has a "_subject" and a "_body"
// message.
const (
	TemplateRequestUpdate      = "notification_request_update"
	TemplateMarkPass           = "notification_mark_pass"
	TemplateApproved           = "notification_approved"
	TemplateRejected           = "notification_rejected"
	TemplateDocumentReuploaded = "notification_document_reuploaded"
)

func SubjectKey(template string) string {
	return template + "_subject"
}

func BodyKey(template string) string {
	return template + "_body"
}
