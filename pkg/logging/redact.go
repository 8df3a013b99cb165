package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const mask = "****"

// RedactEmail keeps at most two runes of the local part and the domain:
// "valid@gmail.com" becomes "va****@gmail.com". Local parts of one or two
// runes keep a single rune. Input without a usable '@' is masked as a whole
// with Redact.
func RedactEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return Redact(s)
	}

	local, domain := s[:at], s[at+1:]
	keep := 2
	if utf8.RuneCountInString(local) <= 2 {
		keep = 1
	}

	return prefixRunes(local, keep) + mask + "@" + domain
}

// RedactPhone keeps only the last two digits: "+77001234567" becomes
// "****67". Values with four digits or fewer are fully masked.
func RedactPhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	digits := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return mask
	}

	return mask + string(digits[len(digits)-2:])
}

// Redact masks an arbitrary value keeping two leading runes of values longer
// than four runes.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= 4 {
		return mask
	}

	return prefixRunes(s, 2) + mask
}

// IsSensitiveKey reports whether values under key must be masked.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "email") || strings.Contains(k, "phone")
}

// RedactFields walks decoded JSON (maps, slices, scalars) and masks every
// value stored under a sensitive key, at any depth. Everything nested under a
// sensitive key is masked too. The input is not modified.
func RedactFields(v any) any {
	return redactValue("", v)
}

func redactValue(key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			childKey := k
			if IsSensitiveKey(key) && !IsSensitiveKey(k) {
				childKey = key
			}
			out[k] = redactValue(childKey, inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = redactValue(key, inner)
		}
		return out
	case nil:
		return nil
	}

	if !IsSensitiveKey(key) {
		return v
	}

	return redactScalar(key, v)
}

func redactScalar(key string, v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.Contains(strings.ToLower(key), "phone") {
		return RedactPhone(s)
	}
	if strings.Contains(s, "@") {
		return RedactEmail(s)
	}

	return Redact(s)
}

func prefixRunes(s string, n int) string {
	offset := 0
	for count := 0; count < n && offset < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}
