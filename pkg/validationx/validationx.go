package validationx

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ARUMANDESU/validation"
)

// Required is a validation rule that checks if a value is not empty. Use it for
// uuid verification, otherwise use validation.Required.
var Required = RequiredRule{}

type RequiredRule struct{}

func (r RequiredRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil || isEmpty(value) {
		return validation.ErrRequired
	}

	return nil
}

func isEmpty(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Array:
		return v.IsZero() || v.Len() == 0
	case reflect.String:
		return v.Len() == 0 || v.String() == "00000000-0000-0000-0000-000000000000" // for uuid empty string
	case reflect.Map, reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Invalid:
		return true
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem().Interface())
	case reflect.Struct:
		if t, ok := value.(time.Time); ok {
			return t.IsZero()
		}
	}

	return false
}

// AssertValidationErrors checks that err is a validation.Errors carrying the
// same field keys as expected.
func AssertValidationErrors(t *testing.T, err error, expected validation.Errors) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected error to be of type validation.Errors, got %T: %v", err, err)
	}

	if len(verrs) != len(expected) {
		t.Fatalf("expected number of validation errors to match, got %v and %v", verrs, expected)
	}

	for field, expectedErr := range expected {
		actualErr, found := verrs[field]
		if !found {
			t.Errorf("field %s: expected error %v, got none", field, expectedErr)
			continue
		}
		if expectedErr != nil {
			AssertValidationError(t, actualErr, expectedErr)
		}
	}
}

func AssertValidationError(t *testing.T, err error, expected error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var verr validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected error to be of type validation.Error, got %T: %v", err, err)
	}
	var expectedVerr validation.Error
	if !errors.As(expected, &expectedVerr) {
		t.Fatalf("expected expected error to be of type validation.Error, got %T: %v", expected, expected)
	}

	if verr.Code() != expectedVerr.Code() {
		t.Errorf("expected validation error code %s, got %s", expectedVerr.Code(), verr.Code())
	}
}
