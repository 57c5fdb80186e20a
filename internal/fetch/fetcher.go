// Package fetch downloads remote artifact bytes from short-lived provider URLs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipforge/export-service/internal/core"
)

const defaultContentType = "image/png"

// Fetcher retrieves the bytes behind a generated image's remote URL. The
// fetch is a distinct pipeline stage with its own failure mode, separate from
// generation.
type Fetcher struct {
	httpClient *http.Client
}

// New creates a fetcher with the given per-request timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads the URL's content and returns it with the served content
// type. Provider CDNs expire these URLs, so failures here are expected to be
// transient more often than generation failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*core.RawArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &core.ImageFetchError{
			URL:    url,
			Status: 0,
			Detail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, &core.ImageFetchError{
			URL:    url,
			Status: resp.StatusCode,
			Detail: string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.ImageFetchError{
			URL:    url,
			Status: resp.StatusCode,
			Detail: fmt.Sprintf("failed to read body: %v", err),
		}
	}

	if len(data) == 0 {
		return nil, &core.ImageFetchError{
			URL:    url,
			Status: resp.StatusCode,
			Detail: "empty image body",
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return &core.RawArtifact{
		Data:        data,
		ContentType: contentType,
	}, nil
}
