package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/affiliation"
	"github.com/khoj-clinics/khoj/internal/domain/apperr"
	"github.com/khoj-clinics/khoj/internal/domain/directory"
	"github.com/khoj-clinics/khoj/internal/domain/shift"
)

// Affiliations resolves the doctor-clinic relationship a booking rides on.
type Affiliations interface {
	GetByKey(ctx context.Context, doctorID, clinicID uuid.UUID) (*affiliation.Affiliation, error)
}

// Directory resolves the people involved for display fields.
type Directory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
	GetClinic(ctx context.Context, id uuid.UUID) (*directory.Clinic, error)
}

type Service struct {
	repo         Repository
	affiliations Affiliations
	directory    Directory
}

func NewService(repo Repository, affiliations Affiliations, directory Directory) *Service {
	return &Service{repo: repo, affiliations: affiliations, directory: directory}
}

type ScheduleRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	StartAt   time.Time `json:"start_at"`
	Reason    *string   `json:"reason,omitempty"`
}

// Schedule books a visit. Admission requires an APPROVED affiliation between
// the doctor and clinic, a start time inside the affiliation's shift, free
// capacity in the slot, and no existing booking by the same patient in it.
// The capacity check and insert run atomically in the repository.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Appointment, error) {
	if req.StartAt.IsZero() {
		return nil, apperr.New(apperr.Validation, "start_at is required")
	}

	aff, err := s.affiliations.GetByKey(ctx, req.DoctorID, req.ClinicID)
	if err != nil {
		return nil, err
	}
	if aff.Status != affiliation.StatusApproved {
		return nil, apperr.New(apperr.InvalidState, "doctor is not an approved affiliate of this clinic")
	}

	covered, err := aff.Shift.Covers(req.StartAt)
	if err != nil {
		return nil, err
	}
	if !covered {
		return nil, apperr.New(apperr.InvalidState, "requested time is outside the doctor's working hours at this clinic")
	}

	patient, err := s.directory.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.directory.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	clinic, err := s.directory.GetClinic(ctx, req.ClinicID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ClinicID:    req.ClinicID,
		StartAt:     req.StartAt,
		SlotKey:     shift.SlotKey(req.StartAt),
		Reason:      req.Reason,
		Status:      StatusScheduled,
		PatientName: patient.FullName(),
		DoctorName:  doctor.FullName(),
		ClinicName:  clinic.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(doctor.Specializations) > 0 {
		a.DoctorSpecialization = &doctor.Specializations[0]
	}

	if err := s.repo.Reserve(ctx, a, aff.ID, aff.PatientLimit); err != nil {
		return nil, err
	}
	return a, nil
}

type UpdateRequest struct {
	StartAt *time.Time `json:"start_at,omitempty"`
	Reason  *string    `json:"reason,omitempty"`
	Status  *string    `json:"status,omitempty"`
}

// Update patches time, reason or status. Moving the time recomputes the slot
// key but does not re-run shift or capacity admission.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartAt != nil {
		a.StartAt = *req.StartAt
		a.SlotKey = shift.SlotKey(*req.StartAt)
	}
	if req.Reason != nil {
		a.Reason = req.Reason
	}
	if req.Status != nil {
		status := strings.ToUpper(*req.Status)
		if !validStatuses[status] {
			return nil, apperr.New(apperr.Validation, "invalid appointment status: %s", *req.Status)
		}
		a.Status = status
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCAS(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes a booking and returns the removed record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
