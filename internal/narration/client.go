// Package narration provides an HTTP client for the speech-synthesis provider.
package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clipforge/export-service/internal/core"
)

// API paths and headers.
const (
	apiTextToSpeech = "/v1/text-to-speech/"
	headerAPIKey    = "xi-api-key"
	headerAccept    = "Accept"
	headerContent   = "Content-Type"
	contentTypeJSON = "application/json"

	// ContentTypeMPEG is the MIME type of all synthesized narration audio.
	ContentTypeMPEG = "audio/mpeg"
)

// Default voice parameters.
const (
	defaultModelID    = "eleven_multilingual_v2"
	defaultStability  = 0.5
	defaultSimilarity = 0.75
)

// request is the JSON payload for a synthesis call.
type request struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// errorResponse is the provider's structured failure body.
type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Client calls the text-to-speech provider. It holds no mutable state; one
// outbound request per Synthesize call, no internal retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string
	stability  float64
	similarity float64
}

// Options customizes voice rendering. Zero values fall back to provider
// defaults chosen for narration work.
type Options struct {
	ModelID    string
	Stability  float64
	Similarity float64
}

// New creates a narration client for the given provider endpoint. The API key
// is required; its absence is reported before any network call is attempted.
func New(baseURL, apiKey string, timeout time.Duration, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}

	if opts.Stability == 0 {
		opts.Stability = defaultStability
	}

	if opts.Similarity == 0 {
		opts.Similarity = defaultSimilarity
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		modelID:    opts.ModelID,
		stability:  opts.Stability,
		similarity: opts.Similarity,
	}
}

// Synthesize converts scriptText to audio/mpeg bytes using the given voice.
// The call is all-or-nothing: either a non-empty payload or an error.
func (c *Client) Synthesize(ctx context.Context, scriptText, voiceID string) ([]byte, error) {
	if scriptText == "" {
		return nil, core.ErrScriptEmpty
	}

	if voiceID == "" {
		return nil, core.ErrVoiceEmpty
	}

	body, err := json.Marshal(request{
		Text:    scriptText,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal narration request: %w", err)
	}

	endpoint := c.baseURL + apiTextToSpeech + url.PathEscape(voiceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create narration request: %w", err)
	}

	httpReq.Header.Set(headerAPIKey, c.apiKey)
	httpReq.Header.Set(headerContent, contentTypeJSON)
	httpReq.Header.Set(headerAccept, ContentTypeMPEG)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach narration provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read narration audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil, &core.NarrationGenerationError{
			Status: resp.StatusCode,
			Detail: "provider returned empty audio payload",
		}
	}

	return audioData, nil
}

// parseErrorResponse decodes the provider's structured error, falling back to
// the raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errResp)
	if err == nil && errResp.Detail.Message != "" {
		return &core.NarrationGenerationError{
			Status: resp.StatusCode,
			Detail: errResp.Detail.Message,
		}
	}

	body, _ := io.ReadAll(resp.Body)

	return &core.NarrationGenerationError{
		Status: resp.StatusCode,
		Detail: string(body),
	}
}
