package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultWriter(t *testing.T) {
	l := New(Config{Level: slog.LevelInfo, Format: "json"})
	require.NotNil(t, l)
	assert.NotNil(t, l.Logger)
}

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production uses json", environment: "production", wantJSON: true},
		{name: "development uses pretty", environment: "development"},
		{name: "empty uses pretty", environment: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			l.Info("update handled")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"update handled"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: "pretty", Writer: &buf})

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestPrettyHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.New(h).Info("photo received", "chat_id", int64(42), "caption", "two words")

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "photo received")
	assert.Contains(t, line, "chat_id=42")
	assert.Contains(t, line, `caption="two words"`)
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	l := slog.New(h).With("update_id", "upd-1").WithGroup("search")

	l.Info("done", "attempts", 2, slog.Group("best", "similarity", 0.95))

	line := buf.String()
	assert.Contains(t, line, "update_id=upd-1")
	assert.Contains(t, line, "search.attempts=2")
	assert.Contains(t, line, "search.best.similarity=0.95")
}

func TestPrettyHandler_ErrorHighlighted(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Logger: slog.New(NewPrettyHandler(&buf, nil))}

	l.WithError(errors.New("boom")).Error("search failed")

	assert.Contains(t, buf.String(), colorRed+"error=boom")
	assert.Contains(t, buf.String(), "ERR")
}

func TestPrettyHandler_WithGroupEmptyName(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.Same(t, h, h.WithGroup(""))
}

func TestFormatLevel(t *testing.T) {
	s, c := formatLevel(slog.LevelDebug)
	assert.Equal(t, "DBG", s)
	assert.Equal(t, colorMagenta, c)

	s, _ = formatLevel(slog.LevelError)
	assert.Equal(t, "ERR", s)

	s, c = formatLevel(slog.Level(12))
	assert.Equal(t, slog.Level(12).String(), s)
	assert.Equal(t, colorGray, c)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, `"has space"`, formatValue(slog.StringValue("has space")))
	assert.Equal(t, "2024-03-01T12:00:00Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "7", formatValue(slog.IntValue(7)))
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Writer: &buf})

	l.WithField("user_id", int64(7)).Component("bot").Info("registered")

	out := buf.String()
	assert.Contains(t, out, `"user_id":7`)
	assert.Contains(t, out, `"component":"bot"`)
}
