package core

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any network call is attempted.
var (
	// ErrScriptEmpty indicates that the narration script text is empty.
	ErrScriptEmpty = errors.New("script text cannot be empty")
	// ErrVoiceEmpty indicates that no voice identifier was supplied.
	ErrVoiceEmpty = errors.New("voice id cannot be empty")
	// ErrPromptEmpty indicates that the image prompt is empty.
	ErrPromptEmpty = errors.New("image prompt cannot be empty")
	// ErrFileNameEmpty indicates that an artifact file name is empty.
	ErrFileNameEmpty = errors.New("file name cannot be empty")
	// ErrEmptyPayload indicates that an artifact payload contains no bytes.
	ErrEmptyPayload = errors.New("artifact payload cannot be empty")
	// ErrNoScenes indicates that an export request contained no scenes.
	ErrNoScenes = errors.New("export request contains no scenes")
)

// NarrationGenerationError reports a failed speech synthesis call. Status and
// Detail come from the provider and are preserved verbatim for diagnostics.
type NarrationGenerationError struct {
	Status int
	Detail string
}

func (e *NarrationGenerationError) Error() string {
	return fmt.Sprintf("narration generation failed (status %d): %s", e.Status, e.Detail)
}

// ImageGenerationError reports a failed image synthesis call, carrying the
// provider's nested error message when one was present.
type ImageGenerationError struct {
	Status int
	Detail string
}

func (e *ImageGenerationError) Error() string {
	return fmt.Sprintf("image generation failed (status %d): %s", e.Status, e.Detail)
}

// ImageFetchError reports a failure downloading a generated image's bytes
// from its short-lived provider URL. Distinct from generation failure so the
// two stages stay independently observable.
type ImageFetchError struct {
	URL    string
	Status int
	Detail string
}

func (e *ImageFetchError) Error() string {
	return fmt.Sprintf("image fetch failed for %s (status %d): %s", e.URL, e.Status, e.Detail)
}

// StorageUploadError reports a rejected object-storage write. The store never
// retries internally; retry policy belongs to the orchestrator.
type StorageUploadError struct {
	FileName string
	Detail   string
}

func (e *StorageUploadError) Error() string {
	return fmt.Sprintf("storage upload failed for %q: %s", e.FileName, e.Detail)
}
