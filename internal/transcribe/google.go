package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/media"
)

// GoogleBackend transcribes through Google Cloud Speech-to-Text. Segments
// stay under the sync Recognize limit because chunk length is capped at the
// configured window (20 s by default, well under the one-minute cap).
type GoogleBackend struct {
	client      *speech.Client
	language    string
	chunkLength time.Duration
	log         *zap.Logger
}

func NewGoogleBackend(ctx context.Context, cfg config.PipelineConfig, log *zap.Logger) (*GoogleBackend, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	return &GoogleBackend{
		client:      client,
		language:    cfg.LanguageCode,
		chunkLength: cfg.ChunkLength,
		log:         log,
	}, nil
}

func (g *GoogleBackend) Close() error {
	return g.client.Close()
}

func (g *GoogleBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	chunks, cleanup, err := media.Segment(ctx, audioPath, g.chunkLength)
	if err != nil {
		return "", fmt.Errorf("segmenting audio: %w", err)
	}
	defer cleanup()

	var transcript strings.Builder
	for i, chunk := range chunks {
		content, err := os.ReadFile(chunk)
		if err != nil {
			return "", fmt.Errorf("reading chunk %d: %w", i+1, err)
		}

		resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
			Config: &speechpb.RecognitionConfig{
				Encoding:        speechpb.RecognitionConfig_LINEAR16,
				SampleRateHertz: 16000,
				LanguageCode:    g.language,
			},
			Audio: &speechpb.RecognitionAudio{
				AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
			},
		})
		if err != nil {
			return "", fmt.Errorf("%w: recognize chunk %d/%d: %v", ErrBackendUnavailable, i+1, len(chunks), err)
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) > 0 {
				transcript.WriteString(result.Alternatives[0].Transcript)
				transcript.WriteString(" ")
			}
		}
	}

	g.log.Info("google transcription complete", zap.Int("chunks", len(chunks)))

	return strings.TrimSpace(transcript.String()), nil
}
