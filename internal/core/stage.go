package core

// Stage identifies where a scene is in the export state machine. Audio and
// image generation run concurrently, so a failed scene records the stage of
// the branch that failed first.
type Stage string

const (
	StagePending         Stage = "PENDING"
	StageGeneratingAudio Stage = "GENERATING_AUDIO"
	StageGeneratingImage Stage = "GENERATING_IMAGE"
	StageFetchingImage   Stage = "FETCHING_IMAGE_BYTES"
	StageUploading       Stage = "UPLOADING"
	StageDone            Stage = "DONE"
	StageFailed          Stage = "FAILED"
)
