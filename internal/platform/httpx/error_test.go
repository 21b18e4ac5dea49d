package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := requestctx.WithTrace(context.Background(), requestctx.TraceInfo{TraceID: "abc123"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NewError("invalid_quantity", "quantity must be\na number", http.StatusBadRequest).
		WithDetails(map[string]any{"field": "quantity"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "invalid_quantity", payload["error"])
	assert.Equal(t, "quantity must be a number", payload["message"])
	assert.EqualValues(t, 400, payload["status"])
	assert.Equal(t, "abc123", payload["trace_id"])
	assert.Equal(t, "quantity", payload["field"])
}

func TestNewErrorDefaultsStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, NewError("x", "y", 0).Status)
}
