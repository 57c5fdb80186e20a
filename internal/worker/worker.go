// Package worker provides a NATS worker that processes scene export jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/clipforge/export-service/internal/core"
	"github.com/clipforge/export-service/internal/events"
)

const defaultJobTimeout = 5 * time.Minute

// Exporter runs the generation pipeline for one export request.
type Exporter interface {
	Export(ctx context.Context, exportID string, scenes []core.Scene, voiceID string) (core.ExportResult, error)
}

// NatsWorker listens for export requests on a NATS subject, runs the
// pipeline and publishes the aggregated outcome.
type NatsWorker struct {
	natsConnection   *nats.Conn
	subject          string
	completedSubject string
	exporter         Exporter
	jobTimeout       time.Duration
	log              *logger.Logger
}

// NewNatsWorker creates a worker bound to the request subject. Completion
// events go both to the request's reply inbox and to completedSubject for
// downstream consumers such as the video-assembly stage.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	completedSubject string,
	exporter Exporter,
	jobTimeout time.Duration,
	log *logger.Logger,
) *NatsWorker {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	return &NatsWorker{
		natsConnection:   natsConnection,
		subject:          subject,
		completedSubject: completedSubject,
		exporter:         exporter,
		jobTimeout:       jobTimeout,
		log:              log,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	w.log.Info("Export %s requested: %d scenes, voice %s",
		event.Header.WorkflowID, len(event.Scenes), event.VoiceID)

	result, err := w.exporter.Export(ctx, event.Header.WorkflowID, event.Scenes, event.VoiceID)
	if err != nil {
		w.log.Error("Failed to run export for workflow %s: %v", event.Header.WorkflowID, err)

		return
	}

	completedEvent := &events.ExportCompletedEvent{
		Header:   events.NewHeader(event.Header.WorkflowID),
		ExportID: result.ExportID,
		Scenes:   events.ResultsFromExport(result, event.Scenes),
	}

	err = w.publishCompletedEvent(msg, completedEvent)
	if err != nil {
		w.log.Error("Failed to publish completion for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// publishCompletedEvent replies to the requester and fans the event out to
// the completed subject when one is configured.
func (w *NatsWorker) publishCompletedEvent(msg *nats.Msg, completedEvent *events.ExportCompletedEvent) error {
	eventData, err := json.Marshal(completedEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	if msg.Reply != "" {
		respondErr := msg.Respond(eventData)
		if respondErr != nil {
			return fmt.Errorf("failed to respond with completion event: %w", respondErr)
		}
	}

	if w.completedSubject != "" {
		publishErr := w.natsConnection.Publish(w.completedSubject, eventData)
		if publishErr != nil {
			return fmt.Errorf("failed to publish completion event: %w", publishErr)
		}
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*events.ExportRequestedEvent, error) {
	var event events.ExportRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if len(event.Scenes) == 0 {
		return nil, core.ErrNoScenes
	}

	if event.VoiceID == "" {
		return nil, core.ErrVoiceEmpty
	}

	return &event, nil
}
