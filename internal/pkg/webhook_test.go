package pkg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), "신고 접수", "article #3")
	require.NoError(t, err)
	assert.Equal(t, "**신고 접수**\narticle #3", got["content"])
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), "s", "b")
	assert.Error(t, err)
}

type recordNotifier struct {
	calls int
	err   error
}

func (r *recordNotifier) Notify(context.Context, string, string) error {
	r.calls++
	return r.err
}

func TestMultiNotifier_ContinuesAfterError(t *testing.T) {
	first := &recordNotifier{err: assert.AnError}
	second := &recordNotifier{}

	err := MultiNotifier{first, nil, second}.Notify(context.Background(), "s", "b")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}
