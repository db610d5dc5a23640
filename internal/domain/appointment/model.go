// Package appointment books patients into hour-granularity slots, admitting a
// booking only through an approved doctor-clinic affiliation with free
// capacity.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

// Appointment is one booked visit. SlotKey is derived from StartAt and names
// the weekly capacity bucket the booking occupies. Display names are
// denormalized from the directory at booking time.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	StartAt   time.Time `db:"start_at" json:"start_at"`
	SlotKey   string    `db:"slot_key" json:"slot_key"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	Status    string    `db:"status" json:"status"`

	PatientName          string  `db:"patient_name" json:"patient_name"`
	DoctorName           string  `db:"doctor_name" json:"doctor_name"`
	DoctorSpecialization *string `db:"doctor_specialization" json:"doctor_specialization,omitempty"`
	ClinicName           string  `db:"clinic_name" json:"clinic_name"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
