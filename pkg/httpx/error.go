package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"

	"github.com/ARUMANDESU/validation"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	yec "gitlab.com/yecreg/yec-backend"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/i18nx"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

type ErrorHandler struct {
	bundle *i18n.Bundle
	logger *slog.Logger
}

// NewErrorHandler loads the embedded locales. It falls back to an empty
// bundle, in which case responses carry message keys instead of text.
func NewErrorHandler() *ErrorHandler {
	h, err := NewErrorHandlerFS(yec.Locales)
	if err != nil {
		slog.Error("failed to load locales, error messages will not be localized", slog.Any("error", err))
		return &ErrorHandler{bundle: i18n.NewBundle(i18nx.DefaultLanguage), logger: slog.Default()}
	}
	return h
}

func NewErrorHandlerFS(fsys fs.FS) (*ErrorHandler, error) {
	bundle, err := i18nx.NewBundle(fsys)
	if err != nil {
		return nil, err
	}
	return &ErrorHandler{bundle: bundle, logger: slog.Default()}, nil
}

func (h *ErrorHandler) Localizer(lang string) *i18n.Localizer {
	return i18nx.Localizer(h.bundle, primaryLanguage(lang))
}

// HandleError records err on span and writes the matching JSON error
// response. msg describes what failed and only goes to logs.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, msg string) {
	otelx.RecordSpanError(span, err, msg)

	localizer := h.Localizer(r.Header.Get("Accept-Language"))

	var appErr *errorx.I18nError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatusCode()
		h.log(r, status, err, msg)
		writeError(w, r, appErr.Code, localize(localizer, appErr.MessageKey, appErr.MessageArgs), status, details(localizer, err))
		return
	}

	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		h.log(r, http.StatusBadRequest, err, msg)
		writeError(w, r,
			errorx.CodeValidationFailed,
			localize(localizer, "validation_failed", nil),
			http.StatusBadRequest,
			validationDetails(localizer, valErrs),
		)
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		h.log(r, http.StatusBadRequest, err, msg)
		writeError(w, r,
			errorx.CodeValidationFailed,
			localize(localizer, valErr.Code(), valErr.Params()),
			http.StatusBadRequest,
			nil,
		)
		return
	}

	h.log(r, http.StatusInternalServerError, err, msg)
	internalErr := errorx.NewInternalError()
	writeError(w, r,
		internalErr.Code,
		localize(localizer, internalErr.MessageKey, nil),
		internalErr.HTTPStatusCode(),
		nil,
	)
}

func (h *ErrorHandler) log(r *http.Request, status int, err error, msg string) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg,
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	slog.WarnContext(r.Context(), "bad request", slog.String("message", message))
	writeError(w, r, errorx.CodeInvalid, message, http.StatusBadRequest, nil)
}

// details localizes field errors wrapped inside an I18nError, e.g. the
// validation failures behind an invalid event.
func details(localizer *i18n.Localizer, err error) map[string]string {
	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		return validationDetails(localizer, valErrs)
	}
	return nil
}

func validationDetails(localizer *i18n.Localizer, errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		flattenValidation(localizer, field, fieldErr, out)
	}
	return out
}

func flattenValidation(localizer *i18n.Localizer, field string, err error, out map[string]string) {
	var nested validation.Errors
	if errors.As(err, &nested) {
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValidation(localizer, field+"."+k, nested[k], out)
		}
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		out[field] = localize(localizer, valErr.Code(), valErr.Params())
		return
	}
	out[field] = err.Error()
}

func localize(localizer *i18n.Localizer, key string, args map[string]any) string {
	msg, err := i18nx.Localize(localizer, &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: args,
	})
	if err != nil || msg == "" {
		return key
	}
	return msg
}

func primaryLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, _ := tags[0].Base()
	return base.String()
}

func writeError(w http.ResponseWriter, r *http.Request,
	code errorx.Code,
	message string,
	status int,
	fields map[string]string,
) {
	response := Envelope{
		"code":    code,
		"message": message,
		"success": false,
	}
	if len(fields) > 0 {
		response["errors"] = fields
	}

	err := WriteJSON(w, status, response, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("%d %s", status, http.StatusText(status)), http.StatusInternalServerError)
	}
}
