package affiliation

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists affiliations. Missing rows surface as apperr.NotFound,
// a duplicate (doctor, clinic) pair as apperr.Conflict, and a version
// mismatch on UpdateCAS as apperr.Conflict.
type Repository interface {
	Create(ctx context.Context, a *Affiliation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Affiliation, error)
	GetByKey(ctx context.Context, doctorID, clinicID uuid.UUID) (*Affiliation, error)
	// UpdateCAS writes the row only when the stored version still matches
	// a.Version, then bumps it.
	UpdateCAS(ctx context.Context, a *Affiliation) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Affiliation, int, error)
}
