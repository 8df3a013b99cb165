package i18nx

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var DefaultLanguage = language.English

var localeFiles = []string{
	"locales/en.toml",
	"locales/kk.toml",
	"locales/ru.toml",
	"locales/validation.en.toml",
}

// NewBundle loads every locale file from fsys. English is the fallback
// language.
func NewBundle(fsys fs.FS) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, path := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(fsys, path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	return bundle, nil
}

// Localizer returns a localizer for lang, falling back to English for an
// unsupported or empty language.
func Localizer(bundle *i18n.Bundle, lang string) *i18n.Localizer {
	switch lang {
	case "kk", "ru":
		return i18n.NewLocalizer(bundle, lang, "en")
	default:
		return i18n.NewLocalizer(bundle, "en")
	}
}

// Localize is Localizer.Localize that accepts a fallback to the default
// language. go-i18n reports such a fallback as MessageNotFoundErr alongside
// the default-language text.
func Localize(localizer *i18n.Localizer, cfg *i18n.LocalizeConfig) (string, error) {
	msg, err := localizer.Localize(cfg)
	var notFound *i18n.MessageNotFoundErr
	if errors.As(err, &notFound) && msg != "" {
		return msg, nil
	}
	return msg, err
}
