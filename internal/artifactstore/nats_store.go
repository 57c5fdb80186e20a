// Package artifactstore provides a NATS JetStream implementation of the ArtifactStore interface.
package artifactstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/clipforge/export-service/internal/core"
)

const headerContentType = "Content-Type"

// NatsArtifactStore persists export artifacts in a NATS JetStream object
// store bucket. Put replaces an existing object of the same name, which gives
// Upload its upsert semantics: re-running a failed export overwrites rather
// than accumulating orphans.
type NatsArtifactStore struct {
	bucket        string
	publicBaseURL string
	store         nats.ObjectStore
}

// New creates the store, binding to the bucket if it already exists.
// publicBaseURL is the externally reachable prefix under which the artifact
// gateway serves this bucket.
func New(jetstreamContext nats.JetStreamContext, bucketName, publicBaseURL string) (*NatsArtifactStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsArtifactStore{
		bucket:        bucketName,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		store:         store,
	}, nil
}

// Upload writes the payload under fileName and returns its public URL. The
// object is world-readable through the gateway immediately after the write;
// there is no separate publish step. Rejected writes surface as
// StorageUploadError without internal retries.
func (s *NatsArtifactStore) Upload(_ context.Context, fileName string, data []byte, contentType string) (string, error) {
	if fileName == "" {
		return "", core.ErrFileNameEmpty
	}

	if len(data) == 0 {
		return "", core.ErrEmptyPayload
	}

	meta := &nats.ObjectMeta{
		Name:        fileName,
		Description: "",
		Headers:     nats.Header{headerContentType: []string{contentType}},
		Metadata:    nil,
		Opts:        nil,
	}

	_, err := s.store.Put(meta, bytes.NewReader(data))
	if err != nil {
		return "", &core.StorageUploadError{
			FileName: fileName,
			Detail:   err.Error(),
		}
	}

	return s.PublicURL(fileName), nil
}

// Download retrieves an object and its stored content type.
func (s *NatsArtifactStore) Download(_ context.Context, fileName string) (*core.RawArtifact, error) {
	if fileName == "" {
		return nil, core.ErrFileNameEmpty
	}

	obj, err := s.store.Get(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", fileName, s.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", fileName, readErr)
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close object '%s': %w", fileName, closeErr)
	}

	contentType := ""

	info, infoErr := obj.Info()
	if infoErr == nil && info.Headers != nil {
		contentType = info.Headers.Get(headerContentType)
	}

	return &core.RawArtifact{
		Data:        data,
		ContentType: contentType,
	}, nil
}

// PublicURL derives the stable public URL for a file name. Pure derivation:
// no network call, and it must not fail once the object exists.
func (s *NatsArtifactStore) PublicURL(fileName string) string {
	return s.publicBaseURL + "/" + s.bucket + "/" + fileName
}
