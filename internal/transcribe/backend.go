// Package transcribe wraps external speech-to-text engines behind a single
// interface. Backends receive a stored audio path and return the full
// transcript; chunking and format conversion are backend concerns.
package transcribe

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned when the speech engine cannot be
// reached, including when the circuit breaker is open.
var ErrBackendUnavailable = errors.New("speech backend unavailable")

// Backend is a pluggable transcription engine. Implementations must return
// either the complete transcript or an error, never a partial transcript.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
