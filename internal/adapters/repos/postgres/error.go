package postgres

import (
	"errors"
)

var (
	ErrNoRowsAffected  = errors.New("no rows affected")
	ErrNilRegistration = errors.New("registration cannot be nil")
)
