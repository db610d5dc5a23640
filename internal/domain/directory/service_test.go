package directory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
)

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "doctor not found")
	}
	return d, nil
}

func (m *mockDoctorRepo) Update(ctx context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return apperr.New(apperr.NotFound, "doctor not found")
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.doctors[id]; !ok {
		return apperr.New(apperr.NotFound, "doctor not found")
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockDoctorRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	var items []*Doctor
	for _, d := range m.doctors {
		if spec, ok := params["specialization"]; ok {
			found := false
			for _, s := range d.Specializations {
				if s == spec {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if name, ok := params["name"]; ok {
			if !strings.Contains(strings.ToLower(d.FirstName+" "+d.LastName), strings.ToLower(name)) {
				continue
			}
		}
		items = append(items, d)
	}
	return items, len(items), nil
}

type mockClinicRepo struct {
	clinics map[uuid.UUID]*Clinic
}

func newMockClinicRepo() *mockClinicRepo {
	return &mockClinicRepo{clinics: make(map[uuid.UUID]*Clinic)}
}

func (m *mockClinicRepo) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "clinic not found")
	}
	return c, nil
}

func (m *mockClinicRepo) Update(ctx context.Context, c *Clinic) error {
	if _, ok := m.clinics[c.ID]; !ok {
		return apperr.New(apperr.NotFound, "clinic not found")
	}
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.clinics[id]; !ok {
		return apperr.New(apperr.NotFound, "clinic not found")
	}
	delete(m.clinics, id)
	return nil
}

func (m *mockClinicRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Clinic, int, error) {
	var items []*Clinic
	for _, c := range m.clinics {
		items = append(items, c)
	}
	return items, len(items), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.New(apperr.NotFound, "patient not found")
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.New(apperr.NotFound, "patient not found")
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	var items []*Patient
	for _, p := range m.patients {
		items = append(items, p)
	}
	return items, len(items), nil
}

func newTestService() *Service {
	return NewService(newMockDoctorRepo(), newMockClinicRepo(), newMockPatientRepo())
}

func TestRegisterDoctor(t *testing.T) {
	svc := newTestService()
	d := &Doctor{FirstName: "Asha", LastName: "Verma", Email: "asha@example.com",
		Specializations: []string{"cardiology"}}
	if err := svc.RegisterDoctor(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("expected an id to be assigned")
	}

	got, err := svc.GetDoctor(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullName() != "Asha Verma" {
		t.Errorf("FullName = %q", got.FullName())
	}
}

func TestRegisterDoctor_MissingFields(t *testing.T) {
	svc := newTestService()
	err := svc.RegisterDoctor(context.Background(), &Doctor{FirstName: "Asha"})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected Validation error, got %v", err)
	}
	err = svc.RegisterDoctor(context.Background(), &Doctor{FirstName: "Asha", LastName: "Verma"})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected Validation error for missing email, got %v", err)
	}
}

func TestRegisterClinic_BadOpeningHours(t *testing.T) {
	svc := newTestService()
	err := svc.RegisterClinic(context.Background(), &Clinic{
		Name:         "City Care",
		Email:        "care@example.com",
		OpeningHours: map[string]string{"monday": "late-early"},
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected Validation error, got %v", err)
	}
}

func TestGetDoctor_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetDoctor(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDoctorExists(t *testing.T) {
	svc := newTestService()
	d := &Doctor{FirstName: "Asha", LastName: "Verma", Email: "asha@example.com"}
	if err := svc.RegisterDoctor(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := svc.DoctorExists(context.Background(), d.ID)
	if err != nil || !ok {
		t.Errorf("DoctorExists = %v, %v; want true, nil", ok, err)
	}
	ok, err = svc.DoctorExists(context.Background(), uuid.New())
	if err != nil || ok {
		t.Errorf("DoctorExists = %v, %v; want false, nil", ok, err)
	}
}

func TestSearchDoctorsBySpecialization(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for _, d := range []*Doctor{
		{FirstName: "Asha", LastName: "Verma", Email: "a@example.com", Specializations: []string{"cardiology"}},
		{FirstName: "Ravi", LastName: "Iyer", Email: "r@example.com", Specializations: []string{"dermatology"}},
	} {
		if err := svc.RegisterDoctor(ctx, d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, total, err := svc.SearchDoctors(ctx, map[string]string{"specialization": "cardiology"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].FirstName != "Asha" {
		t.Errorf("unexpected search result: total=%d items=%v", total, items)
	}
}

func TestDeletePatient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := &Patient{FirstName: "Meera", LastName: "Shah", Email: "m@example.com"}
	if err := svc.RegisterPatient(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetPatient(ctx, p.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}
