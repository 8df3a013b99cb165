package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"
)

type Envelope map[string]any

// MaxBodyBytes bounds admin request bodies. The largest one carries a
// free-text reason.
const MaxBodyBytes = 64 << 10

var (
	ErrEmptyBody    = errors.New("body must not be empty")
	ErrBodyTooLarge = errors.New("body is too large")
	ErrTrailingData = errors.New("body must contain a single JSON value")
)

// ReadJSON decodes exactly one JSON value from the request body into v.
// Unknown fields are rejected.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return readJSON(w, r, v, false)
}

// ReadOptionalJSON is ReadJSON for endpoints whose body may be omitted. An
// empty body leaves v untouched.
func ReadOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return readJSON(w, r, v, true)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return ErrEmptyBody
		}
		return decodeError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("%w: limit is %d KB", ErrBodyTooLarge, maxBytesErr.Limit>>10)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("badly-formed JSON at character %d: %w", syntaxErr.Offset, err)
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Errorf("field %q must be %s: %w", typeErr.Field, typeErr.Type, err)
		}
		return fmt.Errorf("invalid JSON at character %d: %w", typeErr.Offset, err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("badly-formed JSON: %w", err)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s: %w", strings.TrimPrefix(err.Error(), "json: unknown field "), err)
	default:
		return fmt.Errorf("invalid JSON: %w", err)
	}
}

// WriteJSON writes data as a single JSON line. HTML characters in reasons
// and names are left unescaped.
func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return err
	}

	maps.Copy(w.Header(), headers)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func Success(w http.ResponseWriter, r *http.Request, status int, message Envelope) {
	if message == nil {
		message = make(Envelope, 1)
	}
	message["success"] = true

	if err := WriteJSON(w, status, message, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write success response",
			slog.Int("status", status),
			slog.Any("error", err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
