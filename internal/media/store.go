package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
)

var (
	ErrFileTooLarge      = errors.New("audio file exceeds the maximum upload size")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Store writes accepted uploads into the audio directory under a generated
// unique name. Validation happens before any disk write; concurrent uploads
// never collide because every request gets its own filename.
type Store struct {
	dir      string
	maxBytes int64
	allowed  map[string]struct{}
	log      *zap.Logger
}

func NewStore(cfg config.UploadConfig, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}

	return &Store{
		dir:      cfg.AudioDir,
		maxBytes: cfg.MaxUploadBytes,
		allowed:  allowed,
		log:      log,
	}, nil
}

// Validate checks the declared filename and size without touching the disk.
func (s *Store) Validate(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := s.allowed[ext]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if size > s.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, size, s.maxBytes)
	}
	return nil
}

// Save validates and persists the upload, returning the generated filename.
// The size limit is enforced again while copying in case the declared size
// was understated.
func (s *Store) Save(filename string, r io.Reader, size int64) (string, error) {
	if err := s.Validate(filename, size); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	storedName := uuid.New().String() + ext
	path := filepath.Join(s.dir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: stream exceeded %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	s.log.Info("audio file saved",
		zap.String("stored_name", storedName),
		zap.Int64("bytes", written),
	)

	return storedName, nil
}

// Path resolves a stored name back to its on-disk path.
func (s *Store) Path(storedName string) string {
	return filepath.Join(s.dir, storedName)
}

// Remove deletes a stored upload. Used to clean up after processing failures.
func (s *Store) Remove(storedName string) {
	if err := os.Remove(filepath.Join(s.dir, storedName)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove audio file",
			zap.String("stored_name", storedName),
			zap.Error(err),
		)
	}
}
