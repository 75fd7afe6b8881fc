package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlons-app/parlons/internal/config"
)

func newTestService(url string) *Service {
	return NewService(&config.TTSConfig{
		ServiceURL:      url,
		APIKey:          "test-key",
		DefaultLanguage: "fr",
		RequestTimeout:  5 * time.Second,
	})
}

func TestNewServiceDisabledWithoutURL(t *testing.T) {
	svc := NewService(&config.TTSConfig{})
	assert.Nil(t, svc)
}

func TestSynthesizeSendsTextAndLanguage(t *testing.T) {
	var got synthesizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	audio, err := svc.Synthesize(context.Background(), "Bonjour", "fr")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, "Bonjour", got.Text)
	assert.Equal(t, "fr", got.Language)
}

func TestSynthesizeDefaultLanguage(t *testing.T) {
	var got synthesizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	_, err := svc.Synthesize(context.Background(), "Bonjour", "")
	require.NoError(t, err)
	assert.Equal(t, "fr", got.Language)
}

func TestSynthesizeBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	_, err := svc.Synthesize(context.Background(), "Bonjour", "fr")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "rate limit")
}
