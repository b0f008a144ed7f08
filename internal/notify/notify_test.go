package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotify(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := NewWebhook(server.URL, zap.NewNop())
	err := w.Notify(context.Background(), []string{"admin@example.com"}, "Stock deducted: Gloves", "Dana deducted 12 x Gloves (stock 50 -> 38).")
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@example.com"}, received.To)
	assert.Equal(t, "Stock deducted: Gloves", received.Subject)
}

func TestWebhookNotify_Non2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	w := NewWebhook(server.URL, zap.NewNop())
	err := w.Notify(context.Background(), nil, "subject", "body")
	assert.Error(t, err)
}

func TestWebhookNotify_Unreachable(t *testing.T) {
	w := NewWebhook("http://127.0.0.1:1", zap.NewNop())
	err := w.Notify(context.Background(), nil, "subject", "body")
	assert.Error(t, err)
}
