package otelx

import (
	"errors"
	"fmt"
	"time"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/pkg/errorx"
)

// RecordSpanError marks span as failed. Localized errors also carry their
// error code so refusals can be told apart from faults.
func RecordSpanError(span trace.Span, err error, desc string) {
	if span == nil || err == nil {
		return
	}
	if desc == "" {
		desc = err.Error()
	}
	var i18nErr *errorx.I18nError
	if errors.As(err, &i18nErr) && i18nErr.Code != "" {
		span.SetAttributes(attribute.String("error.code", i18nErr.Code.String()))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, desc)
}

// SetSpanAttrs sets one attribute per map entry. Values without a native
// attribute type are rendered as strings.
func SetSpanAttrs(span trace.Span, attrs map[string]any) {
	if span == nil || len(attrs) == 0 {
		return
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		kvs = append(kvs, toAttribute(key, value))
	}
	span.SetAttributes(kvs...)
}

func toAttribute(key string, value any) attribute.KeyValue {
	value, isNil := validation.Indirect(value)
	if isNil {
		return attribute.String(key, "<nil>")
	}

	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case time.Time:
		return attribute.String(key, v.UTC().Format(time.RFC3339Nano))
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
