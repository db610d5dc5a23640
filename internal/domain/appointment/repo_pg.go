package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
	"github.com/khoj-clinics/khoj/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const uniqueViolation = "23505"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, clinic_id, start_at, slot_key, reason, status,
	patient_name, doctor_name, doctor_specialization, clinic_name, version, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ClinicID, &a.StartAt, &a.SlotKey, &a.Reason, &a.Status,
		&a.PatientName, &a.DoctorName, &a.DoctorSpecialization, &a.ClinicName, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	return &a, err
}

// Reserve serializes admissions per affiliation: the FOR UPDATE lock on the
// affiliation row makes the count-then-insert atomic against concurrent
// bookings for the same doctor-clinic pair.
func (r *repoPG) Reserve(ctx context.Context, a *Appointment, affiliationID uuid.UUID, capacity *int) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)

		var version int
		err := conn.QueryRow(ctx,
			`SELECT version FROM affiliation WHERE id = $1 FOR UPDATE`, affiliationID).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.NotFound, "affiliation not found")
		}
		if err != nil {
			return err
		}

		if capacity != nil {
			var booked int
			err := conn.QueryRow(ctx, `
				SELECT COUNT(*) FROM appointment
				WHERE doctor_id = $1 AND clinic_id = $2 AND slot_key = $3 AND status = $4`,
				a.DoctorID, a.ClinicID, a.SlotKey, StatusScheduled).Scan(&booked)
			if err != nil {
				return err
			}
			if booked >= *capacity {
				return apperr.New(apperr.Conflict, "slot %s is full", a.SlotKey)
			}
		}

		a.ID = uuid.New()
		a.Version = 1
		_, err = conn.Exec(ctx, `
			INSERT INTO appointment (id, patient_id, doctor_id, clinic_id, start_at, slot_key,
				reason, status, patient_name, doctor_name, doctor_specialization, clinic_name, version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			a.ID, a.PatientID, a.DoctorID, a.ClinicID, a.StartAt, a.SlotKey,
			a.Reason, a.Status, a.PatientName, a.DoctorName, a.DoctorSpecialization, a.ClinicName, a.Version)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.New(apperr.Conflict, "patient already has a booking in slot %s", a.SlotKey)
		}
		return err
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) UpdateCAS(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET start_at=$3, slot_key=$4, reason=$5, status=$6,
			version=version+1, updated_at=NOW()
		WHERE id = $1 AND version = $2`,
		a.ID, a.Version, a.StartAt, a.SlotKey, a.Reason, a.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.Conflict, "appointment version %d is stale", a.Version)
	}
	a.Version++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["patient_id"]; ok {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["doctor_id"]; ok {
		query += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["clinic_id"]; ok {
		query += fmt.Sprintf(` AND clinic_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND clinic_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["date"]; ok {
		query += fmt.Sprintf(` AND start_at::date = $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_at::date = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}
