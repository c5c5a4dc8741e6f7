package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/domain/patient"
	"github.com/suryansh1j/vaidya/internal/extract"
	"github.com/suryansh1j/vaidya/internal/media"
	"github.com/suryansh1j/vaidya/internal/transcribe"
	"github.com/suryansh1j/vaidya/pkg/metrics"
)

type backendStub struct {
	transcribeFn func(ctx context.Context, audioPath string) (string, error)
	calls        int
}

var _ transcribe.Backend = (*backendStub)(nil)

func (s *backendStub) Transcribe(ctx context.Context, audioPath string) (string, error) {
	s.calls++
	return s.transcribeFn(ctx, audioPath)
}

type patientRepoStub struct {
	createFn func(ctx context.Context, r *patient.Record) error
}

var _ patient.Repository = (*patientRepoStub)(nil)

func (s *patientRepoStub) Create(ctx context.Context, r *patient.Record) error {
	return s.createFn(ctx, r)
}

func (s *patientRepoStub) GetByID(context.Context, uuid.UUID, uuid.UUID) (*patient.Record, error) {
	return nil, patient.ErrRecordNotFound
}

func (s *patientRepoStub) ListByDoctor(context.Context, uuid.UUID) ([]*patient.Record, error) {
	return nil, nil
}

func (s *patientRepoStub) Update(context.Context, uuid.UUID, uuid.UUID, *patient.UpdateRecordCommand) (*patient.Record, error) {
	return nil, patient.ErrRecordNotFound
}

type qaNoop struct{}

func (qaNoop) Answer(context.Context, string, string) (extract.Answer, error) {
	return extract.Answer{}, nil
}

type intakeFixture struct {
	svc      *IntakeService
	backend  *backendStub
	repo     *patientRepoStub
	audioDir string
}

func newIntakeFixture(t *testing.T, backend *backendStub, repo *patientRepoStub) *intakeFixture {
	t.Helper()

	audioDir := filepath.Join(t.TempDir(), "audio")
	store, err := media.NewStore(config.UploadConfig{
		AudioDir:          audioDir,
		MaxUploadBytes:    1024,
		AllowedExtensions: []string{".wav", ".mp3"},
	}, zap.NewNop())
	require.NoError(t, err)

	symptoms, err := extract.NewSymptomExtractor()
	require.NoError(t, err)
	fields := extract.NewFieldExtractor(qaNoop{}, zap.NewNop())

	collector := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
	auditSvc := newTestAuditService(t, &auditRepoStub{})

	return &intakeFixture{
		svc:      NewIntakeService(store, backend, fields, symptoms, repo, auditSvc, collector, zap.NewNop()),
		backend:  backend,
		repo:     repo,
		audioDir: audioDir,
	}
}

func (f *intakeFixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.audioDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIntakeService_Success(t *testing.T) {
	transcript := "Mr. Verma is a 48 year old male. He has a high fever and a dry cough. No chest pain."
	backend := &backendStub{
		transcribeFn: func(_ context.Context, audioPath string) (string, error) {
			assert.FileExists(t, audioPath)
			return transcript, nil
		},
	}

	var persisted *patient.Record
	repo := &patientRepoStub{
		createFn: func(_ context.Context, r *patient.Record) error {
			r.ID = uuid.New()
			persisted = r
			return nil
		},
	}

	f := newIntakeFixture(t, backend, repo)
	doctorID := uuid.New()

	rec, err := f.svc.Process(context.Background(), doctorID, "visit.wav", strings.NewReader("audio"), 5, "10.0.0.1", "req-1")
	require.NoError(t, err)

	assert.Equal(t, persisted, rec)
	assert.Equal(t, doctorID, rec.DoctorID)
	assert.Equal(t, transcript, rec.Transcript)
	assert.Equal(t, "Verma", rec.PatientName)
	assert.Equal(t, "48", rec.Age)
	assert.Equal(t, "Male", rec.Gender)
	assert.Equal(t, []string{"fever", "cough"}, rec.AffirmedSymptoms)
	assert.Equal(t, []string{"chest pain"}, rec.NegatedSymptoms)

	// The stored audio survives a successful run and the record points at it.
	assert.Equal(t, []string{rec.AudioFilename}, f.storedFiles(t))
}

func TestIntakeService_RejectsBeforeTranscription(t *testing.T) {
	backend := &backendStub{
		transcribeFn: func(context.Context, string) (string, error) {
			return "", errors.New("must not be reached")
		},
	}
	repo := &patientRepoStub{
		createFn: func(context.Context, *patient.Record) error {
			return errors.New("must not be reached")
		},
	}
	f := newIntakeFixture(t, backend, repo)

	_, err := f.svc.Process(context.Background(), uuid.New(), "notes.pdf", strings.NewReader("x"), 1, "10.0.0.1", "req-2")
	assert.ErrorIs(t, err, media.ErrUnsupportedFormat)

	_, err = f.svc.Process(context.Background(), uuid.New(), "big.wav", strings.NewReader("x"), 4096, "10.0.0.1", "req-3")
	assert.ErrorIs(t, err, media.ErrFileTooLarge)

	assert.Zero(t, backend.calls)
	assert.Empty(t, f.storedFiles(t))
}

func TestIntakeService_TranscriptionFailureRemovesAudio(t *testing.T) {
	backend := &backendStub{
		transcribeFn: func(context.Context, string) (string, error) {
			return "", transcribe.ErrBackendUnavailable
		},
	}
	repo := &patientRepoStub{
		createFn: func(context.Context, *patient.Record) error {
			return errors.New("must not be reached")
		},
	}
	f := newIntakeFixture(t, backend, repo)

	_, err := f.svc.Process(context.Background(), uuid.New(), "visit.wav", strings.NewReader("audio"), 5, "10.0.0.1", "req-4")
	require.Error(t, err)
	assert.ErrorIs(t, err, transcribe.ErrBackendUnavailable)

	assert.Equal(t, 1, backend.calls)
	assert.Empty(t, f.storedFiles(t), "failed pipeline must not leave the audio behind")
}

func TestIntakeService_PersistFailureRemovesAudio(t *testing.T) {
	backend := &backendStub{
		transcribeFn: func(context.Context, string) (string, error) {
			return "The patient has a cough.", nil
		},
	}
	repo := &patientRepoStub{
		createFn: func(context.Context, *patient.Record) error {
			return errors.New("db is down")
		},
	}
	f := newIntakeFixture(t, backend, repo)

	_, err := f.svc.Process(context.Background(), uuid.New(), "visit.mp3", strings.NewReader("audio"), 5, "10.0.0.1", "req-5")
	require.Error(t, err)

	assert.Empty(t, f.storedFiles(t))
}
