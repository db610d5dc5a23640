package affiliation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
)

// Directory resolves party ids against the profile records.
type Directory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	ClinicExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo      Repository
	directory Directory
}

func NewService(repo Repository, directory Directory) *Service {
	return &Service{repo: repo, directory: directory}
}

// CreateRequest opens a negotiation between a doctor and a clinic. The
// initiator must be one of the two parties; only one affiliation row may ever
// exist per pair, whatever its status.
func (s *Service) CreateRequest(ctx context.Context, initiator Party, initiatorID uuid.UUID, doctorID, clinicID uuid.UUID, terms Terms) (*Affiliation, error) {
	switch initiator {
	case PartyDoctor:
		if initiatorID != doctorID {
			return nil, apperr.New(apperr.Unauthorized, "doctor %s cannot initiate for doctor %s", initiatorID, doctorID)
		}
	case PartyClinic:
		if initiatorID != clinicID {
			return nil, apperr.New(apperr.Unauthorized, "clinic %s cannot initiate for clinic %s", initiatorID, clinicID)
		}
	default:
		return nil, apperr.New(apperr.Validation, "invalid initiator %q", initiator)
	}

	if ok, err := s.directory.DoctorExists(ctx, doctorID); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperr.New(apperr.NotFound, "doctor not found")
	}
	if ok, err := s.directory.ClinicExists(ctx, clinicID); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperr.New(apperr.NotFound, "clinic not found")
	}

	if terms.Shift != nil {
		if err := terms.Shift.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	a := &Affiliation{
		DoctorID:    doctorID,
		ClinicID:    clinicID,
		Status:      StatusPending,
		InitiatedBy: initiator,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	a.applyTerms(initiator, terms)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ProcessAction applies an ACCEPT, REJECT or UPDATE from one party to an
// existing negotiation. The acting id must own the acting side of the row.
func (s *Service) ProcessAction(ctx context.Context, acting Party, actingID uuid.UUID, affiliationID uuid.UUID, action string, terms Terms) (*Affiliation, error) {
	a, err := s.repo.GetByID(ctx, affiliationID)
	if err != nil {
		return nil, err
	}

	if a.PartyID(acting) != actingID {
		return nil, apperr.New(apperr.Unauthorized, "not a party to this affiliation")
	}

	if terms.Shift != nil {
		if err := terms.Shift.Validate(); err != nil {
			return nil, err
		}
	}

	switch strings.ToUpper(action) {
	case "ACCEPT":
		err = a.Accept(acting, terms)
	case "REJECT":
		err = a.Reject(acting)
	case "UPDATE":
		err = a.Counter(acting, terms)
	default:
		return nil, apperr.New(apperr.Validation, "invalid status action: %s", action)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCAS(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Affiliation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByKey(ctx context.Context, doctorID, clinicID uuid.UUID) (*Affiliation, error) {
	return s.repo.GetByKey(ctx, doctorID, clinicID)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Affiliation, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
