// Package imagegen provides an HTTP client for the image-generation provider.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipforge/export-service/internal/core"
)

const (
	apiGenerations  = "/v1/images/generations"
	headerAuth      = "Authorization"
	headerContent   = "Content-Type"
	contentTypeJSON = "application/json"

	// The provider returns exactly one image per call. This is a contract
	// property: callers needing multiple images issue multiple calls.
	batchSize = 1

	responseFormatURL = "url"
)

// Defaults for output rendering.
const (
	defaultSize    = "1024x1024"
	defaultQuality = "standard"
)

// request is the JSON payload for a generation call.
type request struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

// response carries the generated image URLs.
type response struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// errorResponse is the provider's structured failure body with its nested
// message field.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Client calls the image-generation provider. One outbound request per
// Synthesize call; no internal retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	size       string
	quality    string
}

// Options customizes output size and quality tier. Zero values use provider
// defaults.
type Options struct {
	Size    string
	Quality string
}

// New creates an image generation client for the given provider endpoint.
func New(baseURL, apiKey string, timeout time.Duration, opts Options) *Client {
	if opts.Size == "" {
		opts.Size = defaultSize
	}

	if opts.Quality == "" {
		opts.Quality = defaultQuality
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		size:    opts.Size,
		quality: opts.Quality,
	}
}

// Synthesize generates one image for the prompt and returns its remote URL.
// The URL is provider-hosted and typically expires; callers must fetch and
// persist the bytes promptly.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", core.ErrPromptEmpty
	}

	body, err := json.Marshal(request{
		Prompt:         prompt,
		N:              batchSize,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: responseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	endpoint := c.baseURL + apiGenerations

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}

	httpReq.Header.Set(headerAuth, "Bearer "+c.apiKey)
	httpReq.Header.Set(headerContent, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach image provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var genResp response

	err = json.NewDecoder(resp.Body).Decode(&genResp)
	if err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}

	if len(genResp.Data) != batchSize {
		return "", &core.ImageGenerationError{
			Status: resp.StatusCode,
			Detail: fmt.Sprintf("expected exactly one image, provider returned %d", len(genResp.Data)),
		}
	}

	if genResp.Data[0].URL == "" {
		return "", &core.ImageGenerationError{
			Status: resp.StatusCode,
			Detail: "provider returned an empty image url",
		}
	}

	return genResp.Data[0].URL, nil
}

// parseErrorResponse surfaces the provider's nested error message when
// present, else the raw body.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse

	err := json.Unmarshal(body, &errResp)
	if err == nil && errResp.Error.Message != "" {
		return &core.ImageGenerationError{
			Status: resp.StatusCode,
			Detail: errResp.Error.Message,
		}
	}

	return &core.ImageGenerationError{
		Status: resp.StatusCode,
		Detail: string(body),
	}
}
