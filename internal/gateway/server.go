// Package gateway serves stored artifacts over HTTP, making their public URLs
// resolvable immediately after upload.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/labstack/echo/v4"

	"github.com/clipforge/export-service/internal/core"
)

const defaultContentType = "application/octet-stream"

// Server exposes the artifact store's bucket under /<bucket>/<fileName>.
// There is no publish step: an object is world-readable here as soon as its
// upload completes.
type Server struct {
	echoServer *echo.Echo
	store      core.ArtifactStore
	bucket     string
	log        *logger.Logger
}

// New creates the gateway for the given bucket.
func New(store core.ArtifactStore, bucket string, log *logger.Logger) *Server {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	server := &Server{
		echoServer: echoServer,
		store:      store,
		bucket:     bucket,
		log:        log,
	}

	echoServer.GET("/healthz", server.health)
	echoServer.GET("/"+bucket+"/*", server.getArtifact)

	return server
}

// Start blocks serving HTTP on the given address until Shutdown is called.
func (s *Server) Start(address string) error {
	err := s.echoServer.Start(address)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("artifact gateway failed: %w", err)
	}

	return nil
}

// Shutdown stops the gateway gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echoServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("failed to shut down artifact gateway: %w", err)
	}

	return nil
}

// Handler exposes the underlying HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getArtifact streams an object with its stored content type. File names
// contain slashes (exportID/scene-NNN-...), hence the wildcard route.
func (s *Server) getArtifact(c echo.Context) error {
	fileName := c.Param("*")
	if fileName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing artifact name")
	}

	artifact, err := s.store.Download(c.Request().Context(), fileName)
	if err != nil {
		s.log.Warn("Artifact %s not served: %v", fileName, err)

		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	return c.Blob(http.StatusOK, contentType, artifact.Data)
}
