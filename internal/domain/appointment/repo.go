package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists appointments. Reserve is the admission write: it must
// atomically check slot capacity and insert, so two concurrent bookings for
// the same (doctor, clinic, slot) cannot both pass the capacity check.
// Missing rows surface as apperr.NotFound; a full slot or a duplicate booking
// by the same patient as apperr.Conflict.
type Repository interface {
	// Reserve inserts a while holding the affiliation row, counting only
	// scheduled bookings against capacity. A nil capacity means unlimited.
	Reserve(ctx context.Context, a *Appointment, affiliationID uuid.UUID, capacity *int) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateCAS writes the row only when the stored version still matches
	// a.Version, then bumps it.
	UpdateCAS(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}
