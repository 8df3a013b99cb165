package env

import (
	"log/slog"
	"strings"
)

// Mode is the deployment the process runs in. It is read from MODE.
type Mode string

const (
	Test  Mode = "test"
	Local Mode = "local"
	Dev   Mode = "dev"
	Prod  Mode = "prod"
)

var aliases = map[string]Mode{
	"development": Dev,
	"production":  Prod,
}

func (e Mode) String() string {
	return string(e)
}

// UnmarshalText accepts any letter case and the long names of dev and prod.
// Unknown names are kept as given and rejected by Validate.
func (e *Mode) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if m, ok := aliases[s]; ok {
		*e = m
		return nil
	}
	*e = Mode(s)
	return nil
}

func (e Mode) Validate() bool {
	switch e {
	case Local, Test, Dev, Prod:
		return true
	default:
		return false
	}
}

func (e Mode) SlogLevel() slog.Level {
	if e == Prod {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// ExposesPersonalData reports whether traces may carry raw SQL statements,
// which hold applicant emails and phones.
func (e Mode) ExposesPersonalData() bool {
	return e != Prod
}

// AllowsLocalOrigins reports whether browser clients on localhost may call
// the admin API.
func (e Mode) AllowsLocalOrigins() bool {
	return e == Dev || e == Local
}
