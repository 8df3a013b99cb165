package env

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
		valid bool
	}{
		{input: "prod", want: Prod, valid: true},
		{input: " PROD ", want: Prod, valid: true},
		{input: "Production", want: Prod, valid: true},
		{input: "development", want: Dev, valid: true},
		{input: "local", want: Local, valid: true},
		{input: "test", want: Test, valid: true},
		{input: "staging", want: Mode("staging"), valid: false},
		{input: "", want: Mode(""), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var m Mode
			require.NoError(t, m.UnmarshalText([]byte(tt.input)))

			assert.Equal(t, tt.want, m)
			assert.Equal(t, tt.valid, m.Validate())
		})
	}
}

func TestMode_Behaviour(t *testing.T) {
	tests := []struct {
		mode         Mode
		level        slog.Level
		exposesPII   bool
		localOrigins bool
	}{
		{mode: Prod, level: slog.LevelInfo, exposesPII: false, localOrigins: false},
		{mode: Dev, level: slog.LevelDebug, exposesPII: true, localOrigins: true},
		{mode: Local, level: slog.LevelDebug, exposesPII: true, localOrigins: true},
		{mode: Test, level: slog.LevelDebug, exposesPII: true, localOrigins: false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.level, tt.mode.SlogLevel())
			assert.Equal(t, tt.exposesPII, tt.mode.ExposesPersonalData())
			assert.Equal(t, tt.localOrigins, tt.mode.AllowsLocalOrigins())
		})
	}
}
