package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new consultation record.
	Create(ctx context.Context, r *Record) error

	// GetByID retrieves a record owned by the given doctor. Returns
	// ErrRecordNotFound when the record is missing or owned by someone else;
	// ownership misses are indistinguishable from absent records.
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Record, error)

	// ListByDoctor returns all records owned by the doctor, newest first.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Record, error)

	// Update overwrites the ten extracted fields of an owned record.
	Update(ctx context.Context, doctorID, id uuid.UUID, cmd *UpdateRecordCommand) (*Record, error)
}
