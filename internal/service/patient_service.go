package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/internal/domain"
	"github.com/suryansh1j/vaidya/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		log:      log,
	}
}

// ListRecords returns summaries of the doctor's own records, newest first.
func (s *PatientService) ListRecords(ctx context.Context, doctorID uuid.UUID) ([]patient.Summary, error) {
	recs, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		s.log.Error("failed to list records", zap.Error(err))
		return nil, err
	}

	summaries := make([]patient.Summary, 0, len(recs))
	for _, r := range recs {
		summaries = append(summaries, r.Summary())
	}
	return summaries, nil
}

// GetRecord fetches one owned record; an ownership miss surfaces as
// patient.ErrRecordNotFound.
func (s *PatientService) GetRecord(ctx context.Context, doctorID, id uuid.UUID, ip, requestID string) (*patient.Record, error) {
	rec, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(AuditEntry{
		UserID:       doctorID,
		Action:       domain.ActionRead,
		ResourceType: "patient_record",
		ResourceID:   id.String(),
		IPAddress:    ip,
		RequestID:    requestID,
	})

	return rec, nil
}

// UpdateRecord applies the doctor-notes edit: a destructive full overwrite
// of the ten extracted fields. Transcript and symptom lists are untouched.
func (s *PatientService) UpdateRecord(ctx context.Context, doctorID, id uuid.UUID, fields patient.Fields, ip, requestID string) (*patient.Record, error) {
	rec, err := s.repo.Update(ctx, doctorID, id, &patient.UpdateRecordCommand{Fields: fields})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(AuditEntry{
		UserID:       doctorID,
		Action:       domain.ActionUpdate,
		ResourceType: "patient_record",
		ResourceID:   id.String(),
		IPAddress:    ip,
		RequestID:    requestID,
	})

	s.log.Info("patient record updated",
		zap.String("record_id", id.String()),
		zap.String("doctor_id", doctorID.String()),
	)

	return rec, nil
}
