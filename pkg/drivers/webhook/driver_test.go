package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Execute_Success(t *testing.T) {
	var gotMethod, gotBody, gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Token")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	result := New(server.Client()).Execute(context.Background(), protocol.Request{Params: map[string]any{
		"url":     server.URL,
		"method":  "post",
		"headers": map[string]any{"X-Token": "secret"},
		"body":    `{"hello": "world"}`,
		"timeout": 5.0,
	}})

	require.True(t, result.IsSuccess(), result.Reason)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "secret", gotHeader)
	assert.JSONEq(t, `{"hello": "world"}`, gotBody)
	assert.Equal(t, http.StatusOK, result.Data["status_code"])
	assert.Equal(t, map[string]any{"ok": true}, result.Data["json"])
}

func TestDriver_Execute_StatusClassification(t *testing.T) {
	tests := []struct {
		status  int
		outcome protocol.Outcome
	}{
		{http.StatusInternalServerError, protocol.OutcomeRetryable},
		{http.StatusBadGateway, protocol.OutcomeRetryable},
		{http.StatusTooManyRequests, protocol.OutcomeRetryable},
		{http.StatusNotFound, protocol.OutcomeFatal},
		{http.StatusUnauthorized, protocol.OutcomeFatal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			result := New(nil).Execute(context.Background(), protocol.Request{Params: map[string]any{
				"url": server.URL,
			}})

			assert.Equal(t, tt.outcome, result.Outcome)
		})
	}
}

func TestDriver_Execute_NetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	result := New(nil).Execute(context.Background(), protocol.Request{Params: map[string]any{"url": url}})

	assert.Equal(t, protocol.OutcomeRetryable, result.Outcome)
}

func TestDriver_Execute_InvalidParameters(t *testing.T) {
	driver := New(nil)

	result := driver.Execute(context.Background(), protocol.Request{Params: map[string]any{}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)

	result = driver.Execute(context.Background(), protocol.Request{Params: map[string]any{
		"url":    "https://example.com",
		"method": "BREW",
	}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)

	result = driver.Execute(context.Background(), protocol.Request{Params: map[string]any{
		"url":     "https://example.com",
		"timeout": 0,
	}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)
}
