package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/media"
)

// WhisperBackend talks to a self-hosted whisper server exposing an
// OpenAI-style /audio/transcriptions endpoint. Audio is cut into
// fixed-length WAV segments which are transcribed in order and
// concatenated; any segment failure fails the whole call.
type WhisperBackend struct {
	url         string
	model       string
	apiKey      string
	chunkLength time.Duration
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[string]
	log         *zap.Logger
}

func NewWhisperBackend(cfg config.PipelineConfig, log *zap.Logger) *WhisperBackend {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "whisper",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &WhisperBackend{
		url:         cfg.WhisperURL,
		model:       cfg.WhisperModel,
		apiKey:      cfg.WhisperAPIKey,
		chunkLength: cfg.ChunkLength,
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		breaker:     breaker,
		log:         log,
	}
}

func (w *WhisperBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	chunks, cleanup, err := media.Segment(ctx, audioPath, w.chunkLength)
	if err != nil {
		return "", fmt.Errorf("segmenting audio: %w", err)
	}
	defer cleanup()

	w.log.Info("transcribing audio",
		zap.String("file", filepath.Base(audioPath)),
		zap.Int("chunks", len(chunks)),
	)

	var transcript strings.Builder
	for i, chunk := range chunks {
		text, err := w.breaker.Execute(func() (string, error) {
			return w.transcribeChunk(ctx, chunk)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
			return "", fmt.Errorf("transcribing chunk %d/%d: %w", i+1, len(chunks), err)
		}
		transcript.WriteString(text)
		transcript.WriteString(" ")
	}

	return strings.TrimSpace(transcript.String()), nil
}

type whisperResponse struct {
	Text string `json:"text"`
}

func (w *WhisperBackend) transcribeChunk(ctx context.Context, chunkPath string) (string, error) {
	f, err := os.Open(chunkPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", w.model); err != nil {
		return "", err
	}
	if err := mw.WriteField("language", "en"); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(chunkPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper server http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding whisper response: %w", err)
	}

	return strings.TrimSpace(parsed.Text), nil
}
