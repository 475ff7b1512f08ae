package http

import (
	"bytes"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/stash/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestWriteJSON_EncodeFailureUsesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)

	rec := httptest.NewRecorder()
	writeJSON(rec, logger, http.StatusOK, map[string]any{"value": math.Inf(1)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "Response encode failed")
	assert.Contains(t, buf.String(), "err=")
}

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, logging.NewNop(), http.StatusBadRequest, assert.AnError)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"`+assert.AnError.Error()+`"}`, rec.Body.String())
}
