package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/internal/domain"
	"github.com/suryansh1j/vaidya/internal/domain/patient"
	"github.com/suryansh1j/vaidya/internal/extract"
	"github.com/suryansh1j/vaidya/internal/media"
	"github.com/suryansh1j/vaidya/internal/transcribe"
	"github.com/suryansh1j/vaidya/pkg/metrics"
)

// IntakeService runs the audio-to-structured-record pipeline: store the
// upload, transcribe it, extract symptoms and patient fields, persist the
// record. The whole pipeline is synchronous; there is no partial success.
// A failure after storage removes the stored audio file.
type IntakeService struct {
	store     *media.Store
	stt       transcribe.Backend
	fields    *extract.FieldExtractor
	symptoms  *extract.SymptomExtractor
	repo      patient.Repository
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
	tracer    trace.Tracer
}

func NewIntakeService(
	store *media.Store,
	stt transcribe.Backend,
	fields *extract.FieldExtractor,
	symptoms *extract.SymptomExtractor,
	repo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *IntakeService {
	return &IntakeService{
		store:     store,
		stt:       stt,
		fields:    fields,
		symptoms:  symptoms,
		repo:      repo,
		auditSvc:  auditSvc,
		collector: collector,
		log:       log,
		tracer:    otel.Tracer("vaidya/intake"),
	}
}

// Process validates and stores the upload, then runs transcription and both
// extraction passes before persisting the record. Validation failures
// surface as media.ErrFileTooLarge / media.ErrUnsupportedFormat and happen
// before any disk write.
func (s *IntakeService) Process(ctx context.Context, doctorID uuid.UUID, filename string, r io.Reader, size int64, ip, requestID string) (*patient.Record, error) {
	ctx, span := s.tracer.Start(ctx, "intake.process",
		trace.WithAttributes(attribute.String("upload.filename", filename)))
	defer span.End()

	storedName, err := s.store.Save(filename, r, size)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrFileTooLarge):
			s.collector.UploadsRejectedTotal.WithLabelValues("too_large").Inc()
		case errors.Is(err, media.ErrUnsupportedFormat):
			s.collector.UploadsRejectedTotal.WithLabelValues("unsupported_format").Inc()
		}
		return nil, err
	}

	rec, err := s.process(ctx, doctorID, storedName)
	if err != nil {
		// Cleanup audio file on error; the record and the file live or
		// die together.
		s.store.Remove(storedName)
		return nil, err
	}

	s.collector.RecordsCreatedTotal.Inc()

	s.auditSvc.LogAsync(AuditEntry{
		UserID:       doctorID,
		Action:       domain.ActionCreate,
		ResourceType: "patient_record",
		ResourceID:   rec.ID.String(),
		IPAddress:    ip,
		RequestID:    requestID,
	})

	s.log.Info("patient record created",
		zap.String("record_id", rec.ID.String()),
		zap.String("doctor_id", doctorID.String()),
		zap.Int("affirmed_symptoms", len(rec.AffirmedSymptoms)),
		zap.Int("negated_symptoms", len(rec.NegatedSymptoms)),
	)

	return rec, nil
}

func (s *IntakeService) process(ctx context.Context, doctorID uuid.UUID, storedName string) (*patient.Record, error) {
	transcript, err := s.transcribeStage(ctx, storedName)
	if err != nil {
		return nil, err
	}

	symptoms := s.symptomStage(ctx, transcript)
	fields := s.fieldStage(ctx, transcript)

	rec := &patient.Record{
		DoctorID:         doctorID,
		AudioFilename:    storedName,
		Transcript:       transcript,
		AffirmedSymptoms: symptoms.Affirmed,
		NegatedSymptoms:  symptoms.Negated,
	}
	rec.ApplyFields(fields)

	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error("failed to persist patient record", zap.Error(err))
		return nil, fmt.Errorf("creating patient record: %w", err)
	}

	return rec, nil
}

func (s *IntakeService) transcribeStage(ctx context.Context, storedName string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "intake.transcribe")
	defer span.End()

	start := time.Now()
	transcript, err := s.stt.Transcribe(ctx, s.store.Path(storedName))
	if err != nil {
		s.collector.TranscriptionFailures.Inc()
		s.log.Error("transcription failed",
			zap.String("stored_name", storedName),
			zap.Error(err),
		)
		return "", fmt.Errorf("transcribing audio: %w", err)
	}
	s.collector.TranscriptionDuration.Observe(time.Since(start).Seconds())

	s.log.Info("transcription complete",
		zap.String("stored_name", storedName),
		zap.Int("transcript_chars", len(transcript)),
	)

	return transcript, nil
}

func (s *IntakeService) symptomStage(ctx context.Context, transcript string) patient.Symptoms {
	_, span := s.tracer.Start(ctx, "intake.extract_symptoms")
	defer span.End()

	start := time.Now()
	symptoms := s.symptoms.Extract(transcript)
	s.collector.ExtractionDuration.WithLabelValues("symptoms").Observe(time.Since(start).Seconds())

	return symptoms
}

func (s *IntakeService) fieldStage(ctx context.Context, transcript string) patient.Fields {
	ctx, span := s.tracer.Start(ctx, "intake.extract_fields")
	defer span.End()

	start := time.Now()
	fields := s.fields.Extract(ctx, transcript)
	s.collector.ExtractionDuration.WithLabelValues("fields").Observe(time.Since(start).Seconds())

	return fields
}
