package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
	"github.com/khoj-clinics/khoj/internal/domain/shift"
)

type Service struct {
	doctors  DoctorRepository
	clinics  ClinicRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, clinics ClinicRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, clinics: clinics, patients: patients}
}

// -- Doctor --

func (s *Service) RegisterDoctor(ctx context.Context, d *Doctor) error {
	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		return apperr.New(apperr.Validation, "first_name and last_name are required")
	}
	if strings.TrimSpace(d.Email) == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if strings.TrimSpace(d.Email) == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) SearchDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}

// -- Clinic --

func (s *Service) RegisterClinic(ctx context.Context, c *Clinic) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.New(apperr.Validation, "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	if c.OpeningHours != nil {
		if err := shift.Schedule(c.OpeningHours).Validate(); err != nil {
			return err
		}
	}
	return s.clinics.Create(ctx, c)
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, c *Clinic) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.New(apperr.Validation, "name is required")
	}
	if c.OpeningHours != nil {
		if err := shift.Schedule(c.OpeningHours).Validate(); err != nil {
			return err
		}
	}
	return s.clinics.Update(ctx, c)
}

func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	return s.clinics.Delete(ctx, id)
}

func (s *Service) SearchClinics(ctx context.Context, params map[string]string, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.Search(ctx, params, limit, offset)
}

// -- Patient --

func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return apperr.New(apperr.Validation, "first_name and last_name are required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.Email) == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, params, limit, offset)
}

// -- Existence checks used by the affiliation and appointment services --

func (s *Service) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.doctors.GetByID(ctx, id)
	if apperr.IsKind(err, apperr.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ClinicExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.clinics.GetByID(ctx, id)
	if apperr.IsKind(err, apperr.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
