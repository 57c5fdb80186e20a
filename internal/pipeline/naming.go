package pipeline

import (
	"fmt"
	"strings"
)

// Artifact name formats. Names are deterministic per export and scene index
// so that a re-run of the same export overwrites its own objects.
const (
	audioFileFormat = "%s/scene-%03d-audio.mp3"
	imageFileFormat = "%s/scene-%03d-image.%s"

	invalidCharReplacement = "_"
	defaultImageExtension  = "png"
)

// contentTypeExtensions maps image MIME types served by provider CDNs to
// file extensions.
var contentTypeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

func audioFileName(exportID string, sceneIndex int) string {
	return fmt.Sprintf(audioFileFormat, exportID, sceneIndex)
}

func imageFileName(exportID string, sceneIndex int, contentType string) string {
	return fmt.Sprintf(imageFileFormat, exportID, sceneIndex, extensionFor(contentType))
}

// extensionFor resolves a file extension from a content type, ignoring any
// charset suffix. Unknown types fall back to png, which is what the image
// provider serves by default.
func extensionFor(contentType string) string {
	mimeType, _, _ := strings.Cut(contentType, ";")

	ext, ok := contentTypeExtensions[strings.TrimSpace(mimeType)]
	if !ok {
		return defaultImageExtension
	}

	return ext
}

// sanitizeFileName replaces characters that are invalid in object names or
// would introduce unintended path segments.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
		" ", invalidCharReplacement,
	)

	return replacer.Replace(name)
}
