package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Segment converts an audio file to mono 16 kHz WAV and cuts it into
// fixed-length chunks for the speech backend. Returns the chunk paths in
// playback order plus a cleanup func that removes the temp directory.
//
// ffmpeg -y -i input -ac 1 -ar 16000 -f segment -segment_time N out%04d.wav
func Segment(ctx context.Context, audioPath string, chunkLength time.Duration) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "vaidya-chunks-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating chunk dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	pattern := filepath.Join(tmpDir, "chunk_%04d.wav")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", audioPath,
		"-ac", "1", "-ar", "16000",
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", int(chunkLength.Seconds())),
		pattern,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ffmpeg segmentation: %w: %s", err, lastLine(stderr.String()))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("reading chunk dir: %w", err)
	}

	chunks := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".wav") {
			chunks = append(chunks, filepath.Join(tmpDir, e.Name()))
		}
	}
	// %04d naming makes lexicographic order the playback order
	sort.Strings(chunks)

	if len(chunks) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("ffmpeg produced no segments for %s", filepath.Base(audioPath))
	}

	return chunks, cleanup, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
