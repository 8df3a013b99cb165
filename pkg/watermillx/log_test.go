package watermillx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestSlogLogger(t *testing.T) {
	tests := []struct {
		name     string
		minLevel slog.Level
		log      func(l watermill.LoggerAdapter)
		want     []string
		wantNot  []string
	}{
		{
			name:     "info with fields",
			minLevel: slog.LevelInfo,
			log: func(l watermill.LoggerAdapter) {
				l.Info("message published", watermill.LogFields{"topic": "notifications.email"})
			},
			want: []string{`"msg":"message published"`, `"topic":"notifications.email"`},
		},
		{
			name:     "error carries the error",
			minLevel: slog.LevelInfo,
			log: func(l watermill.LoggerAdapter) {
				l.Error("handler failed", errors.New("boom"), nil)
			},
			want: []string{`"level":"ERROR"`, `"error":"boom"`},
		},
		{
			name:     "debug below minimum is dropped",
			minLevel: slog.LevelInfo,
			log: func(l watermill.LoggerAdapter) {
				l.Debug("polling", nil)
			},
			wantNot: []string{"polling"},
		},
		{
			name:     "trace needs a level below debug",
			minLevel: slog.LevelDebug - 4,
			log: func(l watermill.LoggerAdapter) {
				l.Trace("tick", nil)
			},
			want: []string{`"msg":"tick"`},
		},
		{
			name:     "sensitive fields are masked",
			minLevel: slog.LevelInfo,
			log: func(l watermill.LoggerAdapter) {
				l.With(watermill.LogFields{"recipient_email": "applicant@example.com"}).Info("sent", nil)
			},
			want:    []string{"ap****@example.com"},
			wantNot: []string{"applicant@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug - 4})
			tt.log(NewSlogLogger(slog.New(handler), tt.minLevel))

			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, out, w)
			}
		})
	}
}
