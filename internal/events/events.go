// Package events defines the NATS message payloads exchanged with the export service.
package events

import (
	"time"

	bookevents "github.com/book-expert/events"
	"github.com/google/uuid"

	"github.com/clipforge/export-service/internal/core"
)

// ExportRequestedEvent asks the service to generate and persist artifacts for
// a set of scenes. WorkflowID doubles as the export identifier, so replaying
// the same workflow overwrites its prior artifacts.
type ExportRequestedEvent struct {
	Header  bookevents.EventHeader `json:"header"`
	VoiceID string                 `json:"voice_id"`
	Scenes  []core.Scene           `json:"scenes"`
}

// SceneResult is the per-scene outcome inside an ExportCompletedEvent: either
// both artifact URLs, or the failed stage and error text.
type SceneResult struct {
	SceneIndex int     `json:"scene_index"`
	Duration   float64 `json:"duration"`
	AudioURL   string  `json:"audio_url,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	Stage      string  `json:"stage"`
	Error      string  `json:"error,omitempty"`
}

// ExportCompletedEvent reports the aggregated outcome of one export request.
// Mixed results are possible; consumers decide whether partial success is
// acceptable.
type ExportCompletedEvent struct {
	Header   bookevents.EventHeader `json:"header"`
	ExportID string                 `json:"export_id"`
	Scenes   []SceneResult          `json:"scenes"`
}

// NewHeader builds an event header for the given workflow, minting a fresh
// event id.
func NewHeader(workflowID string) bookevents.EventHeader {
	return bookevents.EventHeader{
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

// ResultsFromExport flattens an ExportResult into wire-format scene results.
func ResultsFromExport(result core.ExportResult, scenes []core.Scene) []SceneResult {
	sceneResults := make([]SceneResult, len(result.Scenes))

	for index, outcome := range result.Scenes {
		sceneResult := SceneResult{
			SceneIndex: outcome.SceneIndex,
			Duration:   0,
			AudioURL:   "",
			ImageURL:   "",
			Stage:      string(outcome.Stage),
			Error:      "",
		}

		if outcome.SceneIndex < len(scenes) {
			sceneResult.Duration = scenes[outcome.SceneIndex].Duration
		}

		if outcome.Err != nil {
			sceneResult.Error = outcome.Err.Error()
		}

		if outcome.Artifacts != nil {
			sceneResult.AudioURL = outcome.Artifacts.Audio.PublicURL
			sceneResult.ImageURL = outcome.Artifacts.Image.PublicURL
		}

		sceneResults[index] = sceneResult
	}

	return sceneResults
}
