package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/affiliation"
	"github.com/khoj-clinics/khoj/internal/domain/apperr"
	"github.com/khoj-clinics/khoj/internal/domain/directory"
	"github.com/khoj-clinics/khoj/internal/domain/shift"
)

type mockRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Reserve(ctx context.Context, a *Appointment, affiliationID uuid.UUID, capacity *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	booked := 0
	for _, existing := range m.byID {
		if existing.DoctorID != a.DoctorID || existing.ClinicID != a.ClinicID || existing.SlotKey != a.SlotKey {
			continue
		}
		if existing.PatientID == a.PatientID && existing.Status == StatusScheduled {
			return apperr.New(apperr.Conflict, "patient already has a booking in slot %s", a.SlotKey)
		}
		if existing.Status == StatusScheduled {
			booked++
		}
	}
	if capacity != nil && booked >= *capacity {
		return apperr.New(apperr.Conflict, "slot %s is full", a.SlotKey)
	}

	a.ID = uuid.New()
	a.Version = 1
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateCAS(ctx context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[a.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	if stored.Version != a.Version {
		return apperr.New(apperr.Conflict, "appointment version %d is stale", a.Version)
	}
	a.Version++
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.byID {
		if p, ok := params["patient_id"]; ok && a.PatientID.String() != p {
			continue
		}
		if p, ok := params["status"]; ok && a.Status != p {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type mockAffiliations struct {
	byKey map[[2]uuid.UUID]*affiliation.Affiliation
}

func (m *mockAffiliations) GetByKey(ctx context.Context, doctorID, clinicID uuid.UUID) (*affiliation.Affiliation, error) {
	a, ok := m.byKey[[2]uuid.UUID{doctorID, clinicID}]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "affiliation not found")
	}
	return a, nil
}

type mockDirectory struct {
	patients map[uuid.UUID]*directory.Patient
	doctors  map[uuid.UUID]*directory.Doctor
	clinics  map[uuid.UUID]*directory.Clinic
}

func (m *mockDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	return p, nil
}

func (m *mockDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "doctor not found")
	}
	return d, nil
}

func (m *mockDirectory) GetClinic(ctx context.Context, id uuid.UUID) (*directory.Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "clinic not found")
	}
	return c, nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	dir      *mockDirectory
	aff      *affiliation.Affiliation
	doctorID uuid.UUID
	clinicID uuid.UUID
}

// newFixture wires an approved affiliation working Mondays 09:00-17:00 with
// the given slot capacity.
func newFixture(patientLimit *int) *fixture {
	doctorID := uuid.New()
	clinicID := uuid.New()

	aff := &affiliation.Affiliation{
		ID:           uuid.New(),
		DoctorID:     doctorID,
		ClinicID:     clinicID,
		Status:       affiliation.StatusApproved,
		InitiatedBy:  affiliation.PartyDoctor,
		Shift:        shift.Schedule{"monday": "09:00-17:00"},
		PatientLimit: patientLimit,
		Version:      2,
	}

	dir := &mockDirectory{
		patients: map[uuid.UUID]*directory.Patient{},
		doctors: map[uuid.UUID]*directory.Doctor{
			doctorID: {ID: doctorID, FirstName: "Asha", LastName: "Verma",
				Specializations: []string{"cardiology"}},
		},
		clinics: map[uuid.UUID]*directory.Clinic{
			clinicID: {ID: clinicID, Name: "City Care"},
		},
	}

	repo := newMockRepo()
	affs := &mockAffiliations{byKey: map[[2]uuid.UUID]*affiliation.Affiliation{
		{doctorID, clinicID}: aff,
	}}

	return &fixture{
		svc:      NewService(repo, affs, dir),
		repo:     repo,
		dir:      dir,
		aff:      aff,
		doctorID: doctorID,
		clinicID: clinicID,
	}
}

func (f *fixture) addPatient() uuid.UUID {
	id := uuid.New()
	f.dir.patients[id] = &directory.Patient{ID: id, FirstName: "Meera", LastName: "Shah"}
	return id
}

// 2025-06-02 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func TestSchedule(t *testing.T) {
	f := newFixture(nil)
	patientID := f.addPatient()

	a, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID,
		StartAt: monday(10, 30),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", a.Status)
	}
	if a.SlotKey != "MONDAY_10:00" {
		t.Errorf("slot key = %q, want MONDAY_10:00", a.SlotKey)
	}
	if a.PatientName != "Meera Shah" || a.DoctorName != "Asha Verma" || a.ClinicName != "City Care" {
		t.Errorf("display fields = %q/%q/%q", a.PatientName, a.DoctorName, a.ClinicName)
	}
	if a.DoctorSpecialization == nil || *a.DoctorSpecialization != "cardiology" {
		t.Errorf("specialization = %v", a.DoctorSpecialization)
	}
}

func TestSchedule_SlotFull(t *testing.T) {
	one := 1
	f := newFixture(&one)
	ctx := context.Background()

	first := f.addPatient()
	if _, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: first, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different patient in the same hour exceeds the limit, even at a
	// different minute.
	second := f.addPatient()
	_, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: second, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 45),
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected Conflict, got %v", err)
	}

	// The next hour is a fresh slot.
	if _, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: second, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(11, 0),
	}); err != nil {
		t.Errorf("next hour should be free: %v", err)
	}
}

func TestSchedule_DoubleBooking(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	patientID := f.addPatient()

	if _, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 30),
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected Conflict for same patient in same slot, got %v", err)
	}
}

func TestSchedule_OutsideWorkingHours(t *testing.T) {
	f := newFixture(nil)
	patientID := f.addPatient()

	// After hours on a working day.
	_, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(18, 0),
	})
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Errorf("expected InvalidState after hours, got %v", err)
	}

	// A day the doctor does not work at this clinic.
	tuesday := monday(10, 0).AddDate(0, 0, 1)
	_, err = f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: tuesday,
	})
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Errorf("expected InvalidState on a day off, got %v", err)
	}
}

func TestSchedule_AffiliationNotApproved(t *testing.T) {
	f := newFixture(nil)
	f.aff.Status = affiliation.StatusPending
	patientID := f.addPatient()

	_, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestSchedule_NoAffiliation(t *testing.T) {
	f := newFixture(nil)
	patientID := f.addPatient()

	_, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: patientID, DoctorID: uuid.New(), ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestSchedule_UnknownPatient(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: uuid.New(), DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestSchedule_ConcurrentBookingsRespectCapacity(t *testing.T) {
	one := 1
	f := newFixture(&one)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		patientID := f.addPatient()
		wg.Add(1)
		go func(pid uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.Schedule(ctx, ScheduleRequest{
				PatientID: pid, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
			})
			errs <- err
		}(patientID)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !apperr.IsKind(err, apperr.Conflict) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d bookings admitted into a capacity-1 slot", succeeded)
	}
}

func TestUpdate_RecomputesSlotKey(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	patientID := f.addPatient()

	a, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newTime := monday(14, 15)
	updated, err := f.svc.Update(ctx, a.ID, UpdateRequest{StartAt: &newTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.SlotKey != "MONDAY_14:00" {
		t.Errorf("slot key = %q, want MONDAY_14:00", updated.SlotKey)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
}

func TestUpdate_InvalidStatus(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	patientID := f.addPatient()

	a, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := "RESCHEDULED"
	_, err = f.svc.Update(ctx, a.ID, UpdateRequest{Status: &bad})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected Validation, got %v", err)
	}
}

func TestDelete_ReturnsRecord(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	patientID := f.addPatient()

	a, err := f.svc.Schedule(ctx, ScheduleRequest{
		PatientID: patientID, DoctorID: f.doctorID, ClinicID: f.clinicID, StartAt: monday(10, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := f.svc.Delete(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.ID != a.ID {
		t.Errorf("deleted id = %s, want %s", deleted.ID, a.ID)
	}
	if _, err := f.svc.Get(ctx, a.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Delete(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
