package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/scholarsrs/internal/logger"
)

func newBufferLogger(level logger.Level) (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(level),
		logger.WithColors(false),
		logger.WithCaller(false),
	)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.Level
	}{
		{"debug", logger.DEBUG},
		{"INFO", logger.INFO},
		{"warning", logger.WARN},
		{" error ", logger.ERROR},
		{"verbose", logger.INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, buf := newBufferLogger(logger.WARN)

	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  shown 1")
}

func TestLogger_PrefixAndSortedFields(t *testing.T) {
	l, buf := newBufferLogger(logger.DEBUG)

	l.WithPrefix("scheduler").WithFields(map[string]any{"phase": 2, "card_id": 7}).Debug("card shown")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[scheduler] card shown")
	assert.True(t, strings.HasSuffix(line, "card_id=7 phase=2"), line)
}

func TestLogger_DerivedSharesOutput(t *testing.T) {
	l, buf := newBufferLogger(logger.INFO)
	child := l.WithField("session", "abc")

	l.Info("parent")
	child.Info("child")

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "child session=abc")
}

func TestContextRoundTrip(t *testing.T) {
	l, _ := newBufferLogger(logger.INFO)
	ctx := logger.NewContext(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
