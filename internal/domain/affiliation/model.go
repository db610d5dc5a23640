// Package affiliation implements the doctor-clinic relationship registry: a
// negotiation between the two parties that must reach APPROVED before any
// appointment can be booked against the pair.
package affiliation

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
	"github.com/khoj-clinics/khoj/internal/domain/shift"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Party names a side of the negotiation.
type Party string

const (
	PartyDoctor Party = "DOCTOR"
	PartyClinic Party = "CLINIC"
)

// Terms is the negotiable payload carried by requests and counter-proposals.
// Nil fields leave the current value untouched.
type Terms struct {
	DoctorCharge *float64       `json:"doctor_charge,omitempty"`
	ClinicCharge *float64       `json:"clinic_charge,omitempty"`
	Shift        shift.Schedule `json:"shift,omitempty"`
	PatientLimit *int           `json:"patient_limit,omitempty"`
	JoiningDate  *time.Time     `json:"joining_date,omitempty"`
}

// Affiliation is one doctor-clinic relationship. The (DoctorID, ClinicID)
// pair is immutable and unique; all negotiation happens on this single row.
type Affiliation struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	DoctorID     uuid.UUID      `db:"doctor_id" json:"doctor_id"`
	ClinicID     uuid.UUID      `db:"clinic_id" json:"clinic_id"`
	Status       Status         `db:"status" json:"status"`
	InitiatedBy  Party          `db:"initiated_by" json:"initiated_by"`
	DoctorCharge *float64       `db:"doctor_charge" json:"doctor_charge,omitempty"`
	ClinicCharge *float64       `db:"clinic_charge" json:"clinic_charge,omitempty"`
	Shift        shift.Schedule `db:"shift" json:"shift,omitempty"`
	PatientLimit *int           `db:"patient_limit" json:"patient_limit,omitempty"`
	JoiningDate  *time.Time     `db:"joining_date" json:"joining_date,omitempty"`
	Version      int            `db:"version" json:"version"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// PartyID returns the record id owning the given side.
func (a *Affiliation) PartyID(p Party) uuid.UUID {
	if p == PartyDoctor {
		return a.DoctorID
	}
	return a.ClinicID
}

// Accept approves the request. Only a PENDING negotiation can be accepted,
// and never by its own initiator. A clinic must name its charge when
// accepting; the accepting party's terms overwrite the negotiated fields
// where provided.
func (a *Affiliation) Accept(acting Party, t Terms) error {
	if a.Status != StatusPending {
		return apperr.New(apperr.InvalidState, "affiliation is %s and cannot be accepted", a.Status)
	}
	if a.InitiatedBy == acting {
		return apperr.New(apperr.InvalidState, "you cannot accept your own request")
	}
	if acting == PartyClinic && t.ClinicCharge == nil {
		return apperr.New(apperr.Validation, "clinic charge must be provided to accept")
	}
	a.Status = StatusApproved
	a.applyTerms(acting, t)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Reject closes the negotiation. Either party may reject at any point,
// including the initiator withdrawing its own request.
func (a *Affiliation) Reject(acting Party) error {
	a.Status = StatusRejected
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Counter replaces the negotiable terms with the acting party's proposal and
// hands the turn back: the acting party becomes the initiator and the status
// returns to PENDING awaiting the other side.
func (a *Affiliation) Counter(acting Party, t Terms) error {
	if a.InitiatedBy == acting {
		return apperr.New(apperr.InvalidState, "you cannot update your own request; wait for a response")
	}
	a.applyTerms(acting, t)
	a.InitiatedBy = acting
	a.Status = StatusPending
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Affiliation) applyTerms(acting Party, t Terms) {
	if acting == PartyDoctor && t.DoctorCharge != nil {
		a.DoctorCharge = t.DoctorCharge
	}
	if acting == PartyClinic && t.ClinicCharge != nil {
		a.ClinicCharge = t.ClinicCharge
	}
	if t.Shift != nil {
		a.Shift = t.Shift
	}
	if t.PatientLimit != nil {
		a.PatientLimit = t.PatientLimit
	}
	if t.JoiningDate != nil {
		a.JoiningDate = t.JoiningDate
	}
}
