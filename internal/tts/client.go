// Package tts wraps the remote text-to-speech service and turns its
// responses into on-disk audio artifacts.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/futenglish/speech-service/internal/core"
)

// API endpoints and paths.
const (
	apiSynthesize = "/v1/synthesize"
	apiHealth     = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeOGG    = "audio/ogg"
)

// Static errors.
var (
	ErrTextEmpty     = errors.New("text cannot be empty")
	ErrEmptyAudio    = errors.New("received empty audio data")
	ErrWrongEncoding = errors.New("unexpected content type")
)

// SynthesisRequest defines the JSON payload for a synthesis call. Voice
// fields mirror the recognized remote voice options.
type SynthesisRequest struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"language_code"`
	VoiceName    string  `json:"voice_name"`
	Gender       string  `json:"gender,omitempty"`
	SpeakingRate float64 `json:"speaking_rate,omitempty"`
	Pitch        float64 `json:"pitch,omitempty"`
	VolumeGainDB float64 `json:"volume_gain_db,omitempty"`
	Encoding     string  `json:"encoding,omitempty"`
}

// synthesisErrorResponse is the structured error body the service returns on
// failed requests.
type synthesisErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Client is an HTTP client for the remote synthesis service. It implements
// core.Synthesizer and holds no mutable state, so a single instance is
// shared by all concurrent synthesis legs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	encoding   string
}

// NewClient creates a synthesis client. The timeout applies to every request
// made through the underlying http.Client; a timed-out call surfaces as an
// ordinary synthesis failure to the caller.
func NewClient(baseURL string, timeout time.Duration, encoding string) *Client {
	return &Client{
		baseURL:  baseURL,
		encoding: encoding,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one synthesis request and returns the raw audio bytes.
// The caller owns persistence; this method never touches the filesystem.
func (c *Client) Synthesize(ctx context.Context, text string, voice core.VoiceParams) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	requestBody, err := json.Marshal(SynthesisRequest{
		Text:         text,
		LanguageCode: voice.LanguageCode,
		VoiceName:    voice.VoiceName,
		Gender:       voice.Gender,
		SpeakingRate: voice.SpeakingRate,
		Pitch:        voice.Pitch,
		VolumeGainDB: voice.VolumeGainDB,
		Encoding:     c.encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + apiSynthesize

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeOGG)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to synthesis service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeOGG {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongEncoding, contentTypeOGG, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the synthesis service is reachable. The service
// startup uses it to fail fast on a dead endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp synthesisErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf("synthesis service error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("synthesis service returned non-OK status: %s, body: %s", resp.Status, string(body))
}
