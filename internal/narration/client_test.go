package narration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipforge/export-service/internal/core"
)

const (
	testScript  = "A lighthouse at dusk."
	testVoiceID = "voice-123"
	testAPIKey  = "test-key"
)

func TestClient_Synthesize_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(responseWriter http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST request, got %s", r.Method)
			}

			if r.URL.Path != apiTextToSpeech+testVoiceID {
				t.Errorf("Expected text-to-speech path for voice, got %s", r.URL.Path)
			}

			if r.Header.Get(headerAPIKey) != testAPIKey {
				t.Error("Expected api key header to be set")
			}

			var req request

			err := json.NewDecoder(r.Body).Decode(&req)
			if err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}

			if req.Text != testScript {
				t.Errorf("Expected script text to be preserved, got %q", req.Text)
			}

			if req.ModelID == "" {
				t.Error("Expected a model id to be sent")
			}

			if req.VoiceSettings.Stability == 0 {
				t.Error("Expected stability to default to a non-zero value")
			}

			responseWriter.Header().Set(headerContent, ContentTypeMPEG)
			responseWriter.WriteHeader(http.StatusOK)
			responseWriter.Write([]byte("ID3-mock-mpeg-frames"))
		}),
	)
	defer server.Close()

	client := New(server.URL, testAPIKey, 10*time.Second, Options{})

	audioData, err := client.Synthesize(context.Background(), testScript, testVoiceID)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if len(audioData) == 0 {
		t.Error("Expected non-empty audio data")
	}
}

func TestClient_Synthesize_EmptyScript(t *testing.T) {
	t.Parallel()

	// No server: an empty script must fail before any network request.
	client := New("http://127.0.0.1:1", testAPIKey, time.Second, Options{})

	_, err := client.Synthesize(context.Background(), "", testVoiceID)
	if !errors.Is(err, core.ErrScriptEmpty) {
		t.Errorf("Expected ErrScriptEmpty, got: %v", err)
	}
}

func TestClient_Synthesize_EmptyVoice(t *testing.T) {
	t.Parallel()

	client := New("http://127.0.0.1:1", testAPIKey, time.Second, Options{})

	_, err := client.Synthesize(context.Background(), testScript, "")
	if !errors.Is(err, core.ErrVoiceEmpty) {
		t.Errorf("Expected ErrVoiceEmpty, got: %v", err)
	}
}

func TestClient_Synthesize_ProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(headerContent, contentTypeJSON)
			w.WriteHeader(http.StatusUnauthorized)

			var errResp errorResponse

			errResp.Detail.Status = "invalid_api_key"
			errResp.Detail.Message = "API key is invalid"
			json.NewEncoder(w).Encode(errResp)
		}),
	)
	defer server.Close()

	client := New(server.URL, "bad-key", 10*time.Second, Options{})

	_, err := client.Synthesize(context.Background(), testScript, testVoiceID)
	if err == nil {
		t.Fatal("Expected error for rejected API key")
	}

	var genErr *core.NarrationGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected NarrationGenerationError, got: %v", err)
	}

	if genErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected provider status to be preserved, got %d", genErr.Status)
	}

	if !strings.Contains(genErr.Detail, "API key is invalid") {
		t.Errorf("Expected provider message in error, got: %q", genErr.Detail)
	}
}

func TestClient_Synthesize_EmptyAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(headerContent, ContentTypeMPEG)
			w.WriteHeader(http.StatusOK)
		}),
	)
	defer server.Close()

	client := New(server.URL, testAPIKey, 10*time.Second, Options{})

	_, err := client.Synthesize(context.Background(), testScript, testVoiceID)

	var genErr *core.NarrationGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected NarrationGenerationError for empty payload, got: %v", err)
	}
}
