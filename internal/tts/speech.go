// Package tts provides text-to-speech integration with an HTTP synthesis backend.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/parlons-app/parlons/internal/config"
)

// APIError represents an error response from the synthesis backend with the HTTP status code preserved.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "speech API key is invalid or expired"
	case http.StatusForbidden:
		return "speech API key does not have access to this resource"
	case http.StatusTooManyRequests:
		return "speech API rate limit or quota exceeded — try again later"
	case http.StatusUnprocessableEntity:
		return fmt.Sprintf("speech backend rejected the request: %s", e.Body)
	default:
		return fmt.Sprintf("speech API returned status %d: %s", e.StatusCode, e.Body)
	}
}

// Service handles text-to-speech generation via an HTTP synthesis backend.
type Service struct {
	baseURL         string
	apiKey          string
	defaultLanguage string
	client          *http.Client
}

// NewService creates a new TTS service. Returns nil if no backend URL is
// configured, which disables synthesis features.
func NewService(cfg *config.TTSConfig) *Service {
	if cfg.ServiceURL == "" {
		return nil
	}

	return &Service{
		baseURL:         cfg.ServiceURL,
		apiKey:          cfg.APIKey,
		defaultLanguage: cfg.DefaultLanguage,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// DefaultLanguage returns the language code used when none is specified.
func (s *Service) DefaultLanguage() string {
	return s.defaultLanguage
}

// synthesizeRequest is the JSON body sent to the synthesis backend.
type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Synthesize converts text to speech audio in the given language.
// Returns the raw MP3 audio bytes. There is no retry; callers decide
// whether a failure is fatal for their operation.
func (s *Service) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if language == "" {
		language = s.defaultLanguage
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:     text,
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	return audio, nil
}
