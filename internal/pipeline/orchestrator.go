// Package pipeline coordinates narration synthesis, image synthesis, fetch and
// upload for each scene of an export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/clipforge/export-service/internal/core"
	"github.com/clipforge/export-service/internal/script"
)

const (
	defaultMaxConcurrentScenes = 4
	defaultRetryBaseDelay      = 500 * time.Millisecond

	audioContentType = "audio/mpeg"
)

// Config bounds the orchestrator's concurrency and retry behavior.
type Config struct {
	// MaxConcurrentScenes caps simultaneously in-flight scenes so provider
	// rate limits are respected. Scenes beyond the cap queue rather than fail.
	MaxConcurrentScenes int
	// MaxAttempts is the per-call attempt budget. 1 means no retry, which is
	// the conservative baseline.
	MaxAttempts int
	// RetryBaseDelay is the backoff for attempt 2; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// Orchestrator drives each scene through the export state machine:
// PENDING -> GENERATING_AUDIO || GENERATING_IMAGE -> FETCHING_IMAGE_BYTES ->
// UPLOADING -> DONE, with FAILED terminal from any stage. A scene's failure
// never aborts its siblings.
type Orchestrator struct {
	narration  core.NarrationSynthesizer
	images     core.ImageSynthesizer
	fetcher    core.ImageFetcher
	store      core.ArtifactStore
	normalizer *script.Normalizer
	cfg        Config
	log        *logger.Logger
}

// New creates an orchestrator. Zero config fields fall back to defaults.
func New(
	narration core.NarrationSynthesizer,
	images core.ImageSynthesizer,
	fetcher core.ImageFetcher,
	store core.ArtifactStore,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	if cfg.MaxConcurrentScenes <= 0 {
		cfg.MaxConcurrentScenes = defaultMaxConcurrentScenes
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}

	return &Orchestrator{
		narration:  narration,
		images:     images,
		fetcher:    fetcher,
		store:      store,
		normalizer: script.NewNormalizer(),
		cfg:        cfg,
		log:        log,
	}
}

// Export runs the pipeline for all scenes and aggregates per-scene outcomes,
// correlated by scene index. Partial success is reported as such; the caller
// decides whether it is acceptable. Artifact names are deterministic per
// exportID and scene index, so re-running the same export overwrites prior
// objects instead of orphaning them.
func (o *Orchestrator) Export(
	ctx context.Context,
	exportID string,
	scenes []core.Scene,
	voiceID string,
) (core.ExportResult, error) {
	if len(scenes) == 0 {
		return core.ExportResult{}, core.ErrNoScenes
	}

	if voiceID == "" {
		return core.ExportResult{}, core.ErrVoiceEmpty
	}

	if exportID == "" {
		exportID = uuid.NewString()
	} else {
		exportID = sanitizeFileName(exportID)
	}

	result := core.ExportResult{
		ExportID: exportID,
		Scenes:   make([]core.SceneOutcome, len(scenes)),
	}

	var waitGroup sync.WaitGroup

	// Worker pool channel bounds in-flight scenes.
	workerPool := make(chan struct{}, o.cfg.MaxConcurrentScenes)

	for sceneIndex, scene := range scenes {
		waitGroup.Add(1)

		go func(index int, scene core.Scene) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			// Each goroutine writes only its own slot, after its work is done.
			result.Scenes[index] = o.processScene(ctx, exportID, index, scene, voiceID)
		}(sceneIndex, scene)
	}

	waitGroup.Wait()

	if failed := result.Failed(); len(failed) > 0 {
		o.log.Warn("Export %s finished with %d of %d scenes failed: %v",
			exportID, len(failed), len(scenes), failed)
	} else {
		o.log.Info("Export %s finished: %d scenes complete", exportID, len(scenes))
	}

	return result, nil
}

// processScene runs one scene to a terminal state. Audio and image branches
// are independent and run concurrently; within a branch, upload never begins
// before its generation (and, for images, fetch) completes.
func (o *Orchestrator) processScene(
	ctx context.Context,
	exportID string,
	index int,
	scene core.Scene,
	voiceID string,
) core.SceneOutcome {
	request := core.GenerationRequest{
		ScriptText:  o.normalizer.Normalize(scene.Description),
		VoiceID:     voiceID,
		ImagePrompt: scene.Description,
	}

	var (
		waitGroup sync.WaitGroup

		audioArtifact core.StoredArtifact
		audioStage    core.Stage
		audioErr      error

		imageArtifact core.StoredArtifact
		imageStage    core.Stage
		imageErr      error
	)

	waitGroup.Add(2)

	go func() {
		defer waitGroup.Done()

		audioArtifact, audioStage, audioErr = o.runAudioBranch(ctx, exportID, index, request)
	}()

	go func() {
		defer waitGroup.Done()

		imageArtifact, imageStage, imageErr = o.runImageBranch(ctx, exportID, index, scene, request)
	}()

	waitGroup.Wait()

	// No silent partial success: one stored modality plus one failure is a
	// failed scene. The already-uploaded object stays; upsert semantics make
	// the re-run idempotent.
	if audioErr != nil || imageErr != nil {
		stage := audioStage
		if audioErr == nil {
			stage = imageStage
		}

		return core.SceneOutcome{
			SceneIndex: index,
			Artifacts:  nil,
			Stage:      stage,
			Err:        errors.Join(audioErr, imageErr),
		}
	}

	return core.SceneOutcome{
		SceneIndex: index,
		Artifacts: &core.SceneArtifacts{
			Audio: audioArtifact,
			Image: imageArtifact,
		},
		Stage: core.StageDone,
		Err:   nil,
	}
}

// runAudioBranch synthesizes narration and uploads it. Returns the stage at
// which the branch stopped when it fails.
func (o *Orchestrator) runAudioBranch(
	ctx context.Context,
	exportID string,
	index int,
	request core.GenerationRequest,
) (core.StoredArtifact, core.Stage, error) {
	var audioData []byte

	err := o.withRetry(ctx, "narration synthesis", func() error {
		var synthErr error

		audioData, synthErr = o.narration.Synthesize(ctx, request.ScriptText, request.VoiceID)

		return synthErr
	})
	if err != nil {
		return core.StoredArtifact{}, core.StageGeneratingAudio, err
	}

	fileName := audioFileName(exportID, index)

	artifact, err := o.uploadArtifact(ctx, fileName, &core.RawArtifact{
		Data:        audioData,
		ContentType: audioContentType,
	})
	if err != nil {
		return core.StoredArtifact{}, core.StageUploading, err
	}

	o.log.Info("Scene %d audio stored as %s", index, fileName)

	return artifact, core.StageDone, nil
}

// runImageBranch synthesizes an image, fetches its short-lived URL into bytes
// and uploads them. The fetch is its own stage with its own failure mode.
func (o *Orchestrator) runImageBranch(
	ctx context.Context,
	exportID string,
	index int,
	scene core.Scene,
	request core.GenerationRequest,
) (core.StoredArtifact, core.Stage, error) {
	remoteURL := scene.ImageURL

	if remoteURL == "" {
		err := o.withRetry(ctx, "image synthesis", func() error {
			var synthErr error

			remoteURL, synthErr = o.images.Synthesize(ctx, request.ImagePrompt)

			return synthErr
		})
		if err != nil {
			return core.StoredArtifact{}, core.StageGeneratingImage, err
		}
	}

	var raw *core.RawArtifact

	err := o.withRetry(ctx, "image fetch", func() error {
		var fetchErr error

		raw, fetchErr = o.fetcher.Fetch(ctx, remoteURL)

		return fetchErr
	})
	if err != nil {
		return core.StoredArtifact{}, core.StageFetchingImage, err
	}

	fileName := imageFileName(exportID, index, raw.ContentType)

	artifact, err := o.uploadArtifact(ctx, fileName, raw)
	if err != nil {
		return core.StoredArtifact{}, core.StageUploading, err
	}

	o.log.Info("Scene %d image stored as %s", index, fileName)

	return artifact, core.StageDone, nil
}

func (o *Orchestrator) uploadArtifact(
	ctx context.Context,
	fileName string,
	raw *core.RawArtifact,
) (core.StoredArtifact, error) {
	var publicURL string

	err := o.withRetry(ctx, "artifact upload", func() error {
		var uploadErr error

		publicURL, uploadErr = o.store.Upload(ctx, fileName, raw.Data, raw.ContentType)

		return uploadErr
	})
	if err != nil {
		return core.StoredArtifact{}, err
	}

	return core.StoredArtifact{
		FileName:    fileName,
		PublicURL:   publicURL,
		ContentType: raw.ContentType,
	}, nil
}

// withRetry runs fn up to the configured attempt budget with exponential
// backoff between attempts. Validation failures are permanent and returned
// immediately; cancellation stops waiting without blocking.
func (o *Orchestrator) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error

	delay := o.cfg.RetryBaseDelay

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if isPermanent(err) || attempt == o.cfg.MaxAttempts {
			break
		}

		o.log.Warn("Attempt %d/%d for %s failed, retrying in %s: %v",
			attempt, o.cfg.MaxAttempts, operation, delay, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
	}

	return err
}

// isPermanent reports whether retrying can never help.
func isPermanent(err error) bool {
	return errors.Is(err, core.ErrScriptEmpty) ||
		errors.Is(err, core.ErrVoiceEmpty) ||
		errors.Is(err, core.ErrPromptEmpty) ||
		errors.Is(err, core.ErrFileNameEmpty) ||
		errors.Is(err, core.ErrEmptyPayload) ||
		errors.Is(err, context.Canceled)
}
