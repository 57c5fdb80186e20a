// Package core defines the domain types and interfaces for the scene export pipeline.
package core

import "context"

// Scene is one unit of script content with a target duration. Produced by an
// upstream script-generation stage and treated as read-only by the pipeline.
type Scene struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// GenerationRequest is the pipeline's input unit for a single scene.
type GenerationRequest struct {
	ScriptText  string
	VoiceID     string
	ImagePrompt string
}

// RawArtifact is an in-memory payload between generation and upload. It is
// owned exclusively by the orchestrator and never persisted directly.
type RawArtifact struct {
	Data        []byte
	ContentType string
}

// StoredArtifact is the durable result of an upload. FileName is deterministic
// per logical artifact so re-runs overwrite rather than accumulate orphans.
type StoredArtifact struct {
	FileName    string `json:"file_name"`
	PublicURL   string `json:"public_url"`
	ContentType string `json:"content_type"`
}

// SceneArtifacts pairs the two stored artifacts for one scene.
type SceneArtifacts struct {
	Audio StoredArtifact `json:"audio"`
	Image StoredArtifact `json:"image"`
}

// SceneOutcome records the terminal state of one scene: either a complete
// artifact pair or the stage that failed and why. A scene is never reported
// as successful with only one modality stored.
type SceneOutcome struct {
	SceneIndex int
	Artifacts  *SceneArtifacts
	Stage      Stage
	Err        error
}

// ExportResult aggregates per-scene outcomes, correlated by scene index.
type ExportResult struct {
	ExportID string
	Scenes   []SceneOutcome
}

// Failed returns the indices of scenes that did not complete.
func (r ExportResult) Failed() []int {
	var failed []int

	for _, outcome := range r.Scenes {
		if outcome.Err != nil {
			failed = append(failed, outcome.SceneIndex)
		}
	}

	return failed
}

// NarrationSynthesizer converts script text to raw audio bytes via a
// text-to-speech provider. Output is audio/mpeg and all-or-nothing.
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, scriptText, voiceID string) ([]byte, error)
}

// ImageSynthesizer generates one image per call and returns a remote,
// typically short-lived, URL. Callers needing durability must fetch and
// persist promptly.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// ImageFetcher downloads a remote image URL into bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*RawArtifact, error)
}

// ArtifactStore persists binary payloads under caller-supplied names and
// derives stable public URLs. Upload has upsert semantics: re-uploading an
// existing name overwrites the prior object.
type ArtifactStore interface {
	Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, fileName string) (*RawArtifact, error)
	PublicURL(fileName string) string
}
