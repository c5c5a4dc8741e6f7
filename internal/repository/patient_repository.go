package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suryansh1j/vaidya/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

var _ patient.Repository = (*PatientRepository)(nil)

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, rec *patient.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *PatientRepository) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*patient.Record, error) {
	var rec patient.Record
	// Ownership is part of the lookup: a foreign doctor's record is
	// indistinguishable from a missing one.
	err := r.db.WithContext(ctx).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PatientRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*patient.Record, error) {
	var recs []*patient.Record
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *PatientRepository) Update(ctx context.Context, doctorID, id uuid.UUID, cmd *patient.UpdateRecordCommand) (*patient.Record, error) {
	rec, err := r.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}

	rec.ApplyFields(cmd.Fields)

	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}
