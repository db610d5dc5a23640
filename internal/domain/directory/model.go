// Package directory holds the doctor, clinic and patient profile records the
// rest of the system validates against. Rows here carry no credentials; they
// are the public projection of a registered party.
package directory

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	DateOfBirth        *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Email              string     `db:"email" json:"email"`
	RegistrationNumber *string    `db:"registration_number" json:"registration_number,omitempty"`
	Specializations    []string   `db:"specializations" json:"specializations,omitempty"`
	Qualifications     []string   `db:"qualifications" json:"qualifications,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName is the display name used on appointment projections.
func (d *Doctor) FullName() string { return d.FirstName + " " + d.LastName }

type Clinic struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	Name         string            `db:"name" json:"name"`
	Street       *string           `db:"street" json:"street,omitempty"`
	City         *string           `db:"city" json:"city,omitempty"`
	State        *string           `db:"state" json:"state,omitempty"`
	PinCode      *string           `db:"pin_code" json:"pin_code,omitempty"`
	Country      string            `db:"country" json:"country"`
	Phone        *string           `db:"phone" json:"phone,omitempty"`
	Email        string            `db:"email" json:"email"`
	Website      *string           `db:"website" json:"website,omitempty"`
	OpeningHours map[string]string `db:"opening_hours" json:"opening_hours,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	DateOfBirth      *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           *string    `db:"gender" json:"gender,omitempty"`
	Street           *string    `db:"street" json:"street,omitempty"`
	City             *string    `db:"city" json:"city,omitempty"`
	State            *string    `db:"state" json:"state,omitempty"`
	PinCode          *string    `db:"pin_code" json:"pin_code,omitempty"`
	Country          string     `db:"country" json:"country"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	Email            string     `db:"email" json:"email"`
	BloodGroup       *string    `db:"blood_group" json:"blood_group,omitempty"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string { return p.FirstName + " " + p.LastName }
