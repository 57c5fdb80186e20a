package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/export-service/internal/artifactstore"
	"github.com/clipforge/export-service/internal/core"
	"github.com/clipforge/export-service/internal/fetch"
	"github.com/clipforge/export-service/internal/gateway"
	"github.com/clipforge/export-service/internal/imagegen"
	"github.com/clipforge/export-service/internal/narration"
	"github.com/clipforge/export-service/internal/pipeline"
)

// TestExport_EndToEnd drives the real pipeline against mock providers and a
// real JetStream-backed store, then resolves the resulting public URLs over
// HTTP the way the video-assembly stage would.
func TestExport_EndToEnd(t *testing.T) {
	t.Parallel()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	natsServer := test.RunServer(&opts)
	defer natsServer.Shutdown()

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)

	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	// Mock speech provider.
	narrationServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mock-mpeg-frames"))
	}))
	defer narrationServer.Close()

	// Mock image CDN, serving the bytes behind the generated URL.
	cdnServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer cdnServer.Close()

	// Mock image provider, pointing at the CDN.
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"` + cdnServer.URL + `/generated.png"}]}`))
	}))
	defer imageServer.Close()

	// The gateway's address must be known before the store derives public
	// URLs, so the handler is attached after the store exists.
	var gatewayHandler http.Handler

	gatewayServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayHandler.ServeHTTP(w, r)
	}))
	defer gatewayServer.Close()

	store, err := artifactstore.New(jetstreamContext, "exports", gatewayServer.URL)
	require.NoError(t, err)

	log, err := logger.New(t.TempDir(), "e2e-test.log")
	require.NoError(t, err)

	gatewayHandler = gateway.New(store, "exports", log).Handler()

	orchestrator := pipeline.New(
		narration.New(narrationServer.URL, "test-key", 10*time.Second, narration.Options{}),
		imagegen.New(imageServer.URL, "test-key", 10*time.Second, imagegen.Options{}),
		fetch.New(10*time.Second),
		store,
		pipeline.Config{},
		log,
	)

	result, err := orchestrator.Export(
		context.Background(), "e2e-export",
		[]core.Scene{{Description: "A lighthouse at dusk", Duration: 4}},
		"voice-123",
	)
	require.NoError(t, err)
	require.Empty(t, result.Failed())

	artifacts := result.Scenes[0].Artifacts
	require.NotNil(t, artifacts)

	for _, artifact := range []core.StoredArtifact{artifacts.Audio, artifacts.Image} {
		resp, getErr := http.Get(artifact.PublicURL)
		require.NoError(t, getErr)

		assert.Equal(t, http.StatusOK, resp.StatusCode,
			"public URL %s must resolve immediately after upload", artifact.PublicURL)
		assert.Equal(t, artifact.ContentType, resp.Header.Get("Content-Type"))

		require.NoError(t, resp.Body.Close())
	}
}
