package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentStore})

	logger.Info("Transaction removed", FieldTxID, "t1")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "store", rec[FieldComponent])
	assert.Equal(t, "t1", rec[FieldTxID])

	logger.WithComponent(ComponentMirror).With(FieldBackend, "file").Warn("Mirror write failed")
	rec = lastRecord(t, &buf)
	assert.Equal(t, "mirror", rec[FieldComponent])
	assert.Equal(t, "file", rec[FieldBackend])
	assert.Equal(t, "WARN", rec["level"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Level: slog.LevelWarn})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	sl.LogTransactionRecorded(ctx, "t9", "INCOME", "u2", "2500000", 4)
	rec := lastRecord(t, &buf)
	assert.Equal(t, "t9", rec[FieldTxID])
	assert.Equal(t, "2500000", rec[FieldAmount])
	assert.EqualValues(t, 4, rec[FieldRevision])
	assert.Equal(t, OpCreate, rec[FieldOperation])

	sl.LogError(ctx, "Mirror write failed", errors.New("disk full"), ComponentMirror, OpMirror, nil)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "disk full", rec[FieldError])
	assert.Equal(t, "mirror", rec[FieldComponent])

	r := httptest.NewRequest(http.MethodDelete, "/api/transactions/t9", nil)
	sl.LogHTTPEnd(ctx, r, http.StatusNotFound, 3, "203.0.113.1")
	rec = lastRecord(t, &buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.EqualValues(t, 404, rec[FieldStatusCode])
	assert.Equal(t, false, rec[FieldSuccess])
}

func TestFromContext(t *testing.T) {
	logger := Discard().WithComponent(ComponentHTTP)

	got := FromContext(context.WithValue(context.Background(), LoggerContextKey, logger))
	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Equal(t, ComponentApp, FromContext(context.Background()).Component())
}
