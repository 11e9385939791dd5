package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		debug     bool
		wantErr   bool
		wantJSON  bool
		wantDebug bool
	}{
		{name: "default text", format: ""},
		{name: "text", format: "text"},
		{name: "json debug", format: "JSON", debug: true, wantJSON: true, wantDebug: true},
		{name: "unknown", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, tt.format, tt.debug)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			logger.Debug("debug line")
			logger.Info("info line", slog.String("k", "v"))

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))
			assert.Contains(t, out, "info line")

			lines := strings.Split(strings.TrimSpace(out), "\n")
			var rec map[string]any
			isJSON := json.Unmarshal([]byte(lines[len(lines)-1]), &rec) == nil
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithService(WithOperation(logger, "auth.exchange_code"), "oauth2").Info("done")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "auth.exchange_code", rec[KeyOperation])
	assert.Equal(t, "oauth2", rec[KeyService])
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.String(KeyOperation, "op"), Operation("op"))
	assert.Equal(t, slog.String(KeyStatus, StatusSuccess), Status(StatusSuccess))
	assert.Equal(t, slog.String(KeyEvent, "evt1"), Event("evt1"))
	assert.Equal(t, slog.String(KeyError, "boom"), Err(errors.New("boom")))
}

func TestErr_Nil(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("ok", Err(nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, KeyError)
}

func TestCalendar(t *testing.T) {
	assert.Equal(t, "primary", Calendar("primary").Value.String())

	hashed := Calendar("jane@example.com").Value.String()
	assert.True(t, strings.HasPrefix(hashed, "user:"))
	assert.NotContains(t, hashed, "jane")
	assert.Equal(t, hashed, Calendar("jane@example.com").Value.String())
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Empty(t, AnonymizeEmail(""))

	a := AnonymizeEmail("jane@example.com")
	b := AnonymizeEmail("john@example.com")
	assert.Len(t, a, len("user:")+16)
	assert.NotEqual(t, a, b)
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:8 chars]", SanitizeToken("ya29.abc"))
	assert.NotContains(t, SanitizeToken("ya29.secret"), "ya29")
}
