// main package for the export-client, a small CLI for submitting export jobs.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/clipforge/export-service/internal/core"
	"github.com/clipforge/export-service/internal/events"
)

// Flag descriptions.
const (
	flagURLDesc         = "NATS server URL"
	flagSubjectDesc     = "Subject the export service listens on"
	flagScenesDesc      = "JSON file containing an array of scenes"
	flagDescriptionDesc = "Single scene description (alternative to --scenes)"
	flagDurationDesc    = "Duration in seconds for the single scene"
	flagVoiceDesc       = "Voice identifier for narration"
	flagTimeoutDesc     = "How long to wait for the export to complete"
)

// Errors.
var (
	errEitherScenesOrDescription = errors.New("either --scenes or --description must be provided")
	errCannotSpecifyBoth         = errors.New("cannot specify both --scenes and --description")
	errNoScenesInFile            = errors.New("no scenes found in file")
)

type appFlags struct {
	natsURL     string
	subject     string
	scenesPath  string
	description string
	duration    float64
	voice       string
	timeout     time.Duration
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	scenes, err := resolveScenes(flags)
	if err != nil {
		flag.Usage()

		return err
	}

	completedEvent, err := submitExport(flags, scenes)
	if err != nil {
		return err
	}

	printResult(completedEvent)

	return nil
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.natsURL, "url", nats.DefaultURL, flagURLDesc)
	flag.StringVar(&flags.subject, "subject", "video.export.requested", flagSubjectDesc)
	flag.StringVar(&flags.scenesPath, "scenes", "", flagScenesDesc)
	flag.StringVar(&flags.description, "description", "", flagDescriptionDesc)
	flag.Float64Var(&flags.duration, "duration", 4, flagDurationDesc)
	flag.StringVar(&flags.voice, "voice", "", flagVoiceDesc)
	flag.DurationVar(&flags.timeout, "timeout", 5*time.Minute, flagTimeoutDesc)
	flag.Parse()

	return flags
}

func resolveScenes(flags appFlags) ([]core.Scene, error) {
	if flags.scenesPath == "" && flags.description == "" {
		return nil, errEitherScenesOrDescription
	}

	if flags.scenesPath != "" && flags.description != "" {
		return nil, errCannotSpecifyBoth
	}

	if flags.description != "" {
		return []core.Scene{{
			Description: flags.description,
			Duration:    flags.duration,
			ImageURL:    "",
		}}, nil
	}

	data, err := os.ReadFile(flags.scenesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenes file: %w", err)
	}

	return parseScenes(data)
}

// parseScenes decodes a JSON array of scenes and rejects empty inputs.
func parseScenes(data []byte) ([]core.Scene, error) {
	var scenes []core.Scene

	err := json.Unmarshal(data, &scenes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenes JSON: %w", err)
	}

	if len(scenes) == 0 {
		return nil, errNoScenesInFile
	}

	return scenes, nil
}

func submitExport(flags appFlags, scenes []core.Scene) (*events.ExportCompletedEvent, error) {
	natsConnection, err := nats.Connect(flags.natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", flags.natsURL, err)
	}
	defer natsConnection.Close()

	requestEvent := &events.ExportRequestedEvent{
		Header:  events.NewHeader(uuid.NewString()),
		VoiceID: flags.voice,
		Scenes:  scenes,
	}

	eventData, err := json.Marshal(requestEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export request: %w", err)
	}

	fmt.Printf("Submitted export %s (%d scenes), waiting up to %s...\n",
		requestEvent.Header.WorkflowID, len(scenes), flags.timeout)

	replyMsg, err := natsConnection.Request(flags.subject, eventData, flags.timeout)
	if err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}

	var completedEvent events.ExportCompletedEvent

	err = json.Unmarshal(replyMsg.Data, &completedEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completion event: %w", err)
	}

	return &completedEvent, nil
}

func printResult(completedEvent *events.ExportCompletedEvent) {
	fmt.Printf("Export %s finished:\n", completedEvent.ExportID)

	for _, scene := range completedEvent.Scenes {
		if scene.Error != "" {
			fmt.Printf("  scene %d: FAILED at %s: %s\n", scene.SceneIndex, scene.Stage, scene.Error)

			continue
		}

		fmt.Printf("  scene %d: audio %s\n", scene.SceneIndex, scene.AudioURL)
		fmt.Printf("           image %s\n", scene.ImageURL)
	}
}
