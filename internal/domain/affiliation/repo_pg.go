package affiliation

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

const affCols = `id, doctor_id, clinic_id, status, initiated_by, doctor_charge, clinic_charge,
	shift, patient_limit, joining_date, version, requested_at, updated_at`

func scanAffiliation(row pgx.Row) (*Affiliation, error) {
	var a Affiliation
	err := row.Scan(&a.ID, &a.DoctorID, &a.ClinicID, &a.Status, &a.InitiatedBy,
		&a.DoctorCharge, &a.ClinicCharge, &a.Shift, &a.PatientLimit, &a.JoiningDate,
		&a.Version, &a.RequestedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "affiliation not found")
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Affiliation) error {
	a.ID = uuid.New()
	a.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO affiliation (id, doctor_id, clinic_id, status, initiated_by,
			doctor_charge, clinic_charge, shift, patient_limit, joining_date, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.DoctorID, a.ClinicID, a.Status, a.InitiatedBy,
		a.DoctorCharge, a.ClinicCharge, a.Shift, a.PatientLimit, a.JoiningDate, a.Version)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.New(apperr.Conflict, "affiliation request or relationship already exists")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Affiliation, error) {
	return scanAffiliation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+affCols+` FROM affiliation WHERE id = $1`, id))
}

func (r *repoPG) GetByKey(ctx context.Context, doctorID, clinicID uuid.UUID) (*Affiliation, error) {
	return scanAffiliation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+affCols+` FROM affiliation WHERE doctor_id = $1 AND clinic_id = $2`, doctorID, clinicID))
}

func (r *repoPG) UpdateCAS(ctx context.Context, a *Affiliation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE affiliation SET status=$3, initiated_by=$4, doctor_charge=$5, clinic_charge=$6,
			shift=$7, patient_limit=$8, joining_date=$9, version=version+1, updated_at=NOW()
		WHERE id = $1 AND version = $2`,
		a.ID, a.Version, a.Status, a.InitiatedBy, a.DoctorCharge, a.ClinicCharge,
		a.Shift, a.PatientLimit, a.JoiningDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.Conflict, "affiliation version %d is stale", a.Version)
	}
	a.Version++
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Affiliation, int, error) {
	query := `SELECT ` + affCols + ` FROM affiliation WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM affiliation WHERE 1=1`
	var args []interface{}
	idx := 1

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
	if p, ok := params["pending_for"]; ok {
		// Requests awaiting this party's response: PENDING and initiated by
		// the other side.
		query += fmt.Sprintf(` AND status = 'PENDING' AND initiated_by <> $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = 'PENDING' AND initiated_by <> $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Affiliation
	for rows.Next() {
		a, err := scanAffiliation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}
